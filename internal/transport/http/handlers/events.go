package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gatherly/event-service/internal/application/event"
	"github.com/gatherly/event-service/internal/domain"
	"github.com/gatherly/event-service/internal/transport/http/dto"
	"github.com/gatherly/event-service/internal/transport/http/middleware"
	"github.com/gatherly/event-service/internal/transport/http/response"
	"github.com/gatherly/event-service/internal/transport/http/validate"
)

type EventsHandler struct {
	svc *event.Service
}

func NewEventsHandler(svc *event.Service) *EventsHandler {
	return &EventsHandler{svc: svc}
}

// Public
func (h *EventsHandler) ListPublic(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("page_size"))

	var from, to time.Time
	if v := q.Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			response.Err(w, r, domain.ErrValidationMeta("invalid query param", map[string]string{
				"from": "must be RFC3339 timestamp",
			}))
			return
		}
		from = t.UTC()
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			response.Err(w, r, domain.ErrValidationMeta("invalid query param", map[string]string{
				"to": "must be RFC3339 timestamp",
			}))
			return
		}
		to = t.UTC()
	}

	filter := event.ListFilter{
		Location: q.Get("location"),
		Query:    q.Get("q"),
		From:     from,
		To:       to,
		Page:     page,
		PageSize: pageSize,
	}
	filter.Normalize()

	items, total, err := h.svc.ListPublic(r.Context(), filter)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	out := make([]dto.EventResp, 0, len(items))
	for _, it := range items {
		out = append(out, dto.ToEventResp(it, false))
	}

	response.Data(w, http.StatusOK, dto.PageResp[dto.EventResp]{
		Items:    out,
		Page:     filter.Page,
		PageSize: filter.PageSize,
		Total:    total,
	})
}

// Get serves a single event. Private events are only visible to members; to
// anyone else they look like they do not exist. Members also get the join code
// back.
func (h *EventsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "event_id")
	if !validate.IsUUID(id) {
		response.Err(w, r, domain.ErrValidationMeta("invalid path param", map[string]string{
			"event_id": "must be uuid",
		}))
		return
	}

	ev, err := h.svc.GetOne(r.Context(), id)
	if err != nil {
		response.Err(w, r, err)
		return
	}

	var member bool
	if uid := middleware.UserID(r); uid != "" {
		m, err := h.svc.HasRole(r.Context(), id, uid)
		if err != nil {
			response.Err(w, r, err)
			return
		}
		member = m != nil
	}

	if ev.Kind != domain.KindPublic && !member {
		response.Err(w, r, domain.ErrNotFound("event not found"))
		return
	}

	response.Data(w, http.StatusOK, dto.ToEventResp(ev, member))
}

// Organizer
func (h *EventsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateEventReq
	if err := validate.DecodeJSON(r, &req); err != nil {
		response.Err(w, r, domain.ErrValidationMeta("invalid json body", map[string]string{
			"body": "malformed JSON or invalid fields",
		}))
		return
	}

	cmd := event.CreateCmd{
		ActorID:     middleware.UserID(r),
		Name:        req.Name,
		Description: req.Description,
		Location:    req.Location,
		ImageIDs:    req.ImageIDs,
		Kind:        domain.Kind(req.Kind),
	}
	if req.StartAt != nil {
		cmd.StartAt = req.StartAt.UTC()
	}
	if req.EndAt != nil {
		cmd.EndAt = req.EndAt.UTC()
	}

	ev, err := h.svc.Create(r.Context(), cmd)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusCreated, dto.ToEventResp(ev, true))
}

func (h *EventsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "event_id")
	if !validate.IsUUID(id) {
		response.Err(w, r, domain.ErrValidationMeta("invalid path param", map[string]string{
			"event_id": "must be uuid",
		}))
		return
	}

	m, err := h.svc.HasRole(r.Context(), id, middleware.UserID(r), domain.RoleOwner, domain.RoleLead)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	if m == nil {
		response.Err(w, r, domain.ErrForbidden("requires owner or lead role"))
		return
	}

	var req dto.UpdateEventReq
	if err := validate.DecodeJSON(r, &req); err != nil {
		response.Err(w, r, domain.ErrValidationMeta("invalid json body", map[string]string{
			"body": "malformed JSON or invalid fields",
		}))
		return
	}

	ev, err := h.svc.Update(r.Context(), event.UpdateCmd{
		ActorID:   middleware.UserID(r),
		ActorRole: m.Role,
		EventID:   id,
		Patch:     dto.ToPatch(req),
	})
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, dto.ToEventResp(ev, true))
}

func (h *EventsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "event_id")
	if !validate.IsUUID(id) {
		response.Err(w, r, domain.ErrValidationMeta("invalid path param", map[string]string{
			"event_id": "must be uuid",
		}))
		return
	}

	m, err := h.svc.HasRole(r.Context(), id, middleware.UserID(r), domain.RoleOwner)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	if m == nil {
		response.Err(w, r, domain.ErrForbidden("requires owner role"))
		return
	}

	if err := h.svc.Delete(r.Context(), event.DeleteCmd{
		ActorID:   middleware.UserID(r),
		ActorRole: m.Role,
		EventID:   id,
	}); err != nil {
		response.Err(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Member
func (h *EventsHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req dto.JoinEventReq
	if err := validate.DecodeJSON(r, &req); err != nil {
		response.Err(w, r, domain.ErrValidationMeta("invalid json body", map[string]string{
			"body": "malformed JSON or invalid fields",
		}))
		return
	}

	ev, err := h.svc.Join(r.Context(), event.JoinCmd{
		ActorID:  middleware.UserID(r),
		JoinCode: req.JoinCode,
	})
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, dto.ToEventResp(ev, true))
}

func (h *EventsHandler) Members(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "event_id")
	if !validate.IsUUID(id) {
		response.Err(w, r, domain.ErrValidationMeta("invalid path param", map[string]string{
			"event_id": "must be uuid",
		}))
		return
	}

	m, err := h.svc.HasRole(r.Context(), id, middleware.UserID(r))
	if err != nil {
		response.Err(w, r, err)
		return
	}
	if m == nil {
		response.Err(w, r, domain.ErrForbidden("requires event membership"))
		return
	}

	members, err := h.svc.ListMembers(r.Context(), id)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	out := make([]dto.MemberResp, 0, len(members))
	for _, mem := range members {
		out = append(out, dto.ToMemberResp(mem))
	}
	response.Data(w, http.StatusOK, out)
}

func (h *EventsHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("page_size"))
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	items, total, err := h.svc.ListMine(r.Context(), middleware.UserID(r), page, pageSize)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	out := make([]dto.EventResp, 0, len(items))
	for _, it := range items {
		out = append(out, dto.ToEventResp(it, true))
	}

	response.Data(w, http.StatusOK, dto.PageResp[dto.EventResp]{
		Items:    out,
		Page:     page,
		PageSize: pageSize,
		Total:    total,
	})
}
