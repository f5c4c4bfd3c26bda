package echoweb

import (
	"net/http"
	"sort"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/attendance/core/attendance"
)

type (
	resourceList struct {
		Resource attendance.Resource
		Items    []map[string]interface{}
		Page     attendance.Page
		Meta     attendance.Meta
		Prev     *attendance.Page
		Next     *attendance.Page
	}

	resourceField struct {
		Name  string
		Value interface{}
	}

	resourceDetail struct {
		Resource attendance.Resource
		ID       string
		Fields   []resourceField
	}
)

func (s *server) registerResourceRoutes() {
	admin := s.gate(systemAdminGate)
	for _, res := range attendance.Resources {
		res := res
		s.app.GET("/"+res.Path, func(ctx echo.Context) error { return s.listResource(ctx, res) }, admin)
		s.app.GET("/"+res.Path+"/:id", func(ctx echo.Context) error { return s.showResource(ctx, res) }, admin)
	}
}

func (s *server) listResource(ctx echo.Context, res attendance.Resource) error {
	var page attendance.Page
	if err := ctx.Bind(&page); err != nil {
		return errBadRequest
	}
	page.Clean()

	client, err := contextClient(ctx)
	if err != nil {
		return err
	}

	data := resourceList{Resource: res, Page: page}
	data.Meta, err = client.List(ctx.Request().Context(), res, page, &data.Items)
	if err != nil {
		if err = notifyFailure(ctx, err); err != nil {
			return err
		}
	}

	if page.Offset > 0 {
		prev := page.Prev()
		data.Prev = &prev
	}
	// without a total, a full page may have a successor
	if data.Meta.HasNext(page) || (data.Meta.Total == 0 && len(data.Items) == page.Limit) {
		next := page.Next()
		data.Next = &next
	}
	return s.page(ctx, http.StatusOK, "list.gohtml", res.Title, data)
}

func (s *server) showResource(ctx echo.Context, res attendance.Resource) error {
	id := strings.TrimSpace(ctx.Param("id"))
	if id == "" {
		return errHttpNotFound
	}
	client, err := contextClient(ctx)
	if err != nil {
		return err
	}

	var item map[string]interface{}
	if err = client.Get(ctx.Request().Context(), res, id, &item); err != nil {
		return err
	}
	return s.page(ctx, http.StatusOK, "detail.gohtml", res.Title, resourceDetail{
		Resource: res,
		ID:       id,
		Fields:   orderFields(item, res.Columns),
	})
}

// orderFields lists the table columns first, then the other fields by name.
func orderFields(item map[string]interface{}, columns []string) []resourceField {
	fields := make([]resourceField, 0, len(item))
	seen := make(map[string]bool, len(columns))
	for _, col := range columns {
		if val, ok := item[col]; ok {
			fields = append(fields, resourceField{Name: col, Value: val})
			seen[col] = true
		}
	}

	rest := make([]string, 0, len(item))
	for name := range item {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	for _, name := range rest {
		fields = append(fields, resourceField{Name: name, Value: item[name]})
	}
	return fields
}
