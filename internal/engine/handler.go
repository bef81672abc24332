package engine

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/rambosorn/khadimy/internal/content"
	"github.com/rambosorn/khadimy/internal/metadata"
	"github.com/rambosorn/khadimy/internal/store"
)

type Handler struct {
	store    *store.Store
	registry *metadata.Registry
	files    *content.Files
	format   string
	logger   *zap.Logger

	mu    sync.Mutex
	repos map[string]*content.Repository
}

func NewHandler(s *store.Store, reg *metadata.Registry, format string, logger *zap.Logger) *Handler {
	return &Handler{
		store:    s,
		registry: reg,
		files:    content.NewFiles(s),
		format:   format,
		logger:   logger,
		repos:    make(map[string]*content.Repository),
	}
}

func (h *Handler) repo(ct *metadata.ContentType) *content.Repository {
	h.mu.Lock()
	defer h.mu.Unlock()
	r, ok := h.repos[ct.Name]
	if !ok {
		r = content.NewRepository(h.store, ct)
		h.repos[ct.Name] = r
	}
	return r
}

// Find handles GET /api/:name
func (h *Handler) Find(c *fiber.Ctx) error {
	ct, err := h.resolveType(c)
	if err != nil {
		return err
	}

	user := GetUser(c)
	if err := CheckPermission(user, ct, metadata.ActionFind, h.registry); err != nil {
		return err
	}

	plan, err := ParseQuery(QueryArgs(c), ct, h.registry)
	if err != nil {
		return err
	}
	publishedOnly := h.publishedOnly(ct, user, plan)
	ctx := c.UserContext()

	if ct.IsSingle() {
		rec, err := h.repo(ct).FindOne(ctx, content.Plan{PublishedOnly: publishedOnly}.Conditions())
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return NotFoundError("Not Found")
			}
			return fmt.Errorf("find %s: %w", ct.Name, err)
		}
		return h.respondEntry(c, fiber.StatusOK, ct, rec, plan, publishedOnly)
	}

	repoPlan := plan.Plan(publishedOnly)
	records, err := h.repo(ct).List(ctx, repoPlan)
	if err != nil {
		return fmt.Errorf("list %s: %w", ct.Name, err)
	}
	total, err := h.repo(ct).Count(ctx, repoPlan.Conditions())
	if err != nil {
		return fmt.Errorf("count %s: %w", ct.Name, err)
	}

	if err := h.LoadPopulate(ctx, ct, records, plan.Populate, publishedOnly); err != nil {
		return fmt.Errorf("populate %s: %w", ct.Name, err)
	}
	plan.SelectFields(records)

	return c.JSON(fiber.Map{
		"data": h.renderList(ct, records),
		"meta": fiber.Map{"pagination": plan.Meta(total)},
	})
}

// FindOne handles GET /api/:name/:id where id is a numeric id or a document id.
func (h *Handler) FindOne(c *fiber.Ctx) error {
	ct, err := h.resolveCollection(c)
	if err != nil {
		return err
	}

	user := GetUser(c)
	if err := CheckPermission(user, ct, metadata.ActionFindOne, h.registry); err != nil {
		return err
	}

	plan, err := ParseQuery(QueryArgs(c), ct, h.registry)
	if err != nil {
		return err
	}
	publishedOnly := h.publishedOnly(ct, user, plan)

	where := append(content.Plan{PublishedOnly: publishedOnly}.Conditions(), idFilter(c.Params("id")))
	rec, err := h.repo(ct).FindOne(c.UserContext(), where)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return NotFoundError("Not Found")
		}
		return fmt.Errorf("get %s/%s: %w", ct.Name, c.Params("id"), err)
	}

	return h.respondEntry(c, fiber.StatusOK, ct, rec, plan, publishedOnly)
}

// Create handles POST /api/:name
func (h *Handler) Create(c *fiber.Ctx) error {
	ct, err := h.resolveType(c)
	if err != nil {
		return err
	}
	if ct.IsSingle() {
		return NewAppError("MethodNotAllowedError", fiber.StatusMethodNotAllowed, "Method Not Allowed")
	}

	user := GetUser(c)
	if err := CheckPermission(user, ct, metadata.ActionCreate, h.registry); err != nil {
		return err
	}

	body, err := parseData(c)
	if err != nil {
		return err
	}

	ctx := c.UserContext()
	fields, err := h.prepareWrite(ctx, ct, body, nil)
	if err != nil {
		return err
	}
	h.defaultPublish(c, ct, fields)

	rec, err := h.repo(ct).Create(ctx, fields)
	if err != nil {
		return h.writeError(ct, err)
	}

	return h.respondEntry(c, fiber.StatusCreated, ct, rec, nil, false)
}

// Update handles PUT /api/:name/:id, and PUT /api/:name on single types
// (created when absent).
func (h *Handler) Update(c *fiber.Ctx) error {
	ct, err := h.resolveType(c)
	if err != nil {
		return err
	}
	id := c.Params("id")
	if ct.IsSingle() != (id == "") {
		return NotFoundError("Not Found")
	}

	user := GetUser(c)
	if err := CheckPermission(user, ct, metadata.ActionUpdate, h.registry); err != nil {
		return err
	}

	body, err := parseData(c)
	if err != nil {
		return err
	}

	ctx := c.UserContext()
	repo := h.repo(ct)

	var where content.Where
	if id != "" {
		where = content.Where{idFilter(id)}
	}
	current, err := repo.FindOne(ctx, where)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("fetch %s: %w", ct.Name, err)
	}

	if errors.Is(err, store.ErrNotFound) {
		if !ct.IsSingle() {
			return NotFoundError("Not Found")
		}
		fields, err := h.prepareWrite(ctx, ct, body, nil)
		if err != nil {
			return err
		}
		h.defaultPublish(c, ct, fields)
		rec, err := repo.Create(ctx, fields)
		if err != nil {
			return h.writeError(ct, err)
		}
		return h.respondEntry(c, fiber.StatusOK, ct, rec, nil, false)
	}

	fields, err := h.prepareWrite(ctx, ct, body, current)
	if err != nil {
		return err
	}
	rec, err := repo.Update(ctx, current.ID(), fields)
	if err != nil {
		return h.writeError(ct, err)
	}

	return h.respondEntry(c, fiber.StatusOK, ct, rec, nil, false)
}

// Delete handles DELETE /api/:name/:id, and DELETE /api/:name on single types.
func (h *Handler) Delete(c *fiber.Ctx) error {
	ct, err := h.resolveType(c)
	if err != nil {
		return err
	}
	id := c.Params("id")
	if ct.IsSingle() != (id == "") {
		return NotFoundError("Not Found")
	}

	user := GetUser(c)
	if err := CheckPermission(user, ct, metadata.ActionDelete, h.registry); err != nil {
		return err
	}

	ctx := c.UserContext()
	repo := h.repo(ct)

	var where content.Where
	if id != "" {
		where = content.Where{idFilter(id)}
	}
	current, err := repo.FindOne(ctx, where)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return NotFoundError("Not Found")
		}
		return fmt.Errorf("fetch %s: %w", ct.Name, err)
	}

	rec, err := repo.Delete(ctx, current.ID())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return NotFoundError("Not Found")
		}
		return fmt.Errorf("delete %s: %w", ct.Name, err)
	}

	return h.respondEntry(c, fiber.StatusOK, ct, rec, nil, false)
}

// respondEntry writes one entry; plan is nil on writes, which return no
// media or relations.
func (h *Handler) respondEntry(c *fiber.Ctx, status int, ct *metadata.ContentType, rec content.Record, plan *QueryPlan, publishedOnly bool) error {
	var pop *Populate
	if plan != nil {
		pop = plan.Populate
	}
	records := []content.Record{rec}
	if err := h.LoadPopulate(c.UserContext(), ct, records, pop, publishedOnly); err != nil {
		return fmt.Errorf("populate %s: %w", ct.Name, err)
	}
	if plan != nil {
		plan.SelectFields(records)
	}
	return c.Status(status).JSON(fiber.Map{
		"data": h.renderEntry(ct, rec),
		"meta": fiber.Map{},
	})
}

// publishedOnly reports whether drafts are hidden: always, unless an admin asks for them.
func (h *Handler) publishedOnly(ct *metadata.ContentType, user *metadata.UserContext, plan *QueryPlan) bool {
	if !ct.DraftAndPublish {
		return false
	}
	return !(user.IsAdmin() && plan.Drafts)
}

// defaultPublish publishes new entries unless the body or ?status=draft says otherwise.
func (h *Handler) defaultPublish(c *fiber.Ctx, ct *metadata.ContentType, fields map[string]any) {
	if !ct.DraftAndPublish {
		return
	}
	if _, set := fields["publishedAt"]; set {
		return
	}
	if c.Query("status") == "draft" {
		return
	}
	fields["publishedAt"] = time.Now().UTC()
}

func (h *Handler) writeError(ct *metadata.ContentType, err error) error {
	if errors.Is(err, store.ErrUniqueViolation) {
		return BadRequestError("This attribute must be unique")
	}
	if errors.Is(err, content.ErrUnknownField) {
		return BadRequestError(err.Error())
	}
	return fmt.Errorf("write %s: %w", ct.Name, err)
}

func (h *Handler) resolveType(c *fiber.Ctx) (*metadata.ContentType, error) {
	name := c.Params("name")
	ct := h.registry.GetByRoute(name)
	if ct == nil {
		return nil, UnknownContentTypeError(name)
	}
	return ct, nil
}

func (h *Handler) resolveCollection(c *fiber.Ctx) (*metadata.ContentType, error) {
	ct, err := h.resolveType(c)
	if err != nil {
		return nil, err
	}
	if ct.IsSingle() {
		return nil, NotFoundError("Not Found")
	}
	return ct, nil
}

// parseData reads the {"data": {...}} request body.
func parseData(c *fiber.Ctx) (map[string]any, error) {
	var body struct {
		Data map[string]any `json:"data"`
	}
	if err := c.BodyParser(&body); err != nil {
		return nil, BadRequestError("Invalid JSON body")
	}
	if body.Data == nil {
		return nil, BadRequestError(`Missing "data" payload in the request body`)
	}
	return body.Data, nil
}

func idFilter(raw string) content.Filter {
	if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return content.Eq("id", id)
	}
	return content.Eq("documentId", raw)
}

// GetUser returns the caller set by the auth middleware, or the anonymous caller.
func GetUser(c *fiber.Ctx) *metadata.UserContext {
	if user, ok := c.Locals(metadata.UserLocalsKey).(*metadata.UserContext); ok && user != nil {
		return user
	}
	return metadata.Anonymous()
}
