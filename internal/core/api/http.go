package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/solatis/flowkeeper/internal/core/params"
	"github.com/solatis/flowkeeper/internal/types"
)

// LegacyPath serves the legacy ?method= dispatch.
const LegacyPath = "/webapi.htm"

type operation func(ctx context.Context, op types.OpType, src params.Source) Envelope

type legacyMethod struct {
	op        types.OpType
	operation string
}

// legacyMethods maps webapi.htm method names onto operations.
var legacyMethods = map[string]legacyMethod{
	"admin_set_def_flow_control_rule":     {types.OpDefault, opAdd},
	"admin_rmv_def_flow_control_rule":     {types.OpDefault, opDelete},
	"admin_upd_def_flow_control_rule":     {types.OpDefault, opModify},
	"admin_query_def_flow_control_rule":   {types.OpDefault, opQuery},
	"admin_set_group_flow_control_rule":   {types.OpGroup, opAdd},
	"admin_rmv_group_flow_control_rule":   {types.OpGroup, opDelete},
	"admin_upd_group_flow_control_rule":   {types.OpGroup, opModify},
	"admin_query_group_flow_control_rule": {types.OpGroup, opQuery},
}

// RegisterRoutes mounts /flow-rules/{default,group}/{add,delete,modify,query} on rg.
func (s *AdminService) RegisterRoutes(rg *gin.RouterGroup) {
	for _, op := range []types.OpType{types.OpDefault, types.OpGroup} {
		scope := rg.Group("/flow-rules/" + op.String())
		scope.POST("/add", s.handle(op, s.Add))
		scope.POST("/delete", s.handle(op, s.Delete))
		scope.POST("/modify", s.handle(op, s.Modify))
		scope.GET("/query", s.handle(op, s.Query))
	}
}

// RegisterLegacyRoutes mounts the webapi.htm dispatcher on r.
func (s *AdminService) RegisterLegacyRoutes(r gin.IRoutes) {
	r.GET(LegacyPath, s.handleLegacy)
	r.POST(LegacyPath, s.handleLegacy)
}

func (s *AdminService) operation(name string) operation {
	switch name {
	case opAdd:
		return s.Add
	case opDelete:
		return s.Delete
	case opModify:
		return s.Modify
	default:
		return s.Query
	}
}

func (s *AdminService) handle(op types.OpType, fn operation) gin.HandlerFunc {
	return func(c *gin.Context) {
		src, err := requestFields(c)
		if err != nil {
			c.PureJSON(http.StatusOK, Failure(err))
			return
		}
		c.PureJSON(http.StatusOK, fn(c.Request.Context(), op, src))
	}
}

func (s *AdminService) handleLegacy(c *gin.Context) {
	src, err := requestFields(c)
	if err != nil {
		c.PureJSON(http.StatusOK, Failure(err))
		return
	}

	name := params.Optional(src, params.FieldMethod)
	m, ok := legacyMethods[name]
	if !ok {
		c.PureJSON(http.StatusOK, Failure(types.InvalidArgument("Unsupported method: %s", name)))
		return
	}
	c.PureJSON(http.StatusOK, s.operation(m.operation)(c.Request.Context(), m.op, src))
}

// requestFields merges query string and urlencoded form body.
func requestFields(c *gin.Context) (url.Values, error) {
	if err := c.Request.ParseForm(); err != nil {
		return nil, types.InvalidArgument("malformed request parameters: %v", err)
	}
	if c.Request.Form == nil {
		return url.Values{}, nil
	}
	return c.Request.Form, nil
}

