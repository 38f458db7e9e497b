package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/wordlink/internal/audit"
	"github.com/serroba/wordlink/internal/shortener"
	"go.uber.org/zap"
)

// RecordHandler exposes the record lifecycle over HTTP.
type RecordHandler struct {
	service    *shortener.Service
	baseURL    string
	publishers audit.Publishers
	logger     *zap.Logger
}

// NewRecordHandler creates a new record handler.
func NewRecordHandler(
	service *shortener.Service,
	baseURL string,
	publishers audit.Publishers,
	logger *zap.Logger,
) *RecordHandler {
	return &RecordHandler{
		service:    service,
		baseURL:    baseURL,
		publishers: publishers,
		logger:     logger,
	}
}

type requestMetaKey struct{}

// RequestMeta holds HTTP request metadata attached by middleware.
type RequestMeta struct {
	RequestID string
	ClientIP  string
	UserAgent string
}

// ContextWithRequestMeta adds request metadata to context.
func ContextWithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

// RequestMetaFromContext extracts request metadata from context.
func RequestMetaFromContext(ctx context.Context) RequestMeta {
	if v, ok := ctx.Value(requestMetaKey{}).(RequestMeta); ok {
		return v
	}

	return RequestMeta{}
}

func (h *RecordHandler) Status(_ context.Context, _ *struct{}) (*MessageResponse, error) {
	resp := &MessageResponse{}
	resp.Body.Message = "Service is running"

	return resp, nil
}

func (h *RecordHandler) CreateRecord(ctx context.Context, req *CreateRecordRequest) (*CreateRecordResponse, error) {
	result, err := h.service.Create(ctx, req.Body.URL, req.Body.CustomKeyword)
	if err != nil {
		return nil, h.toHTTPError(err, "failed to create record")
	}

	resp := &CreateRecordResponse{Status: http.StatusOK}
	if result.Outcome == shortener.OutcomeCreated {
		resp.Status = http.StatusCreated
		h.publishCreated(ctx, result)
	}

	resp.Body.Message = result.Message()
	resp.Body.Data.ShortenedKey = result.Record.Keyword
	resp.Body.Data.ShortURL = h.shortURL(result.Record.Keyword)
	resp.Body.Data.OriginalURL = result.Record.Original

	return resp, nil
}

func (h *RecordHandler) DeleteRecord(ctx context.Context, req *DeleteRecordRequest) (*MessageResponse, error) {
	deleted, err := h.deleteRecord(ctx, req.URL)
	if err != nil {
		return nil, h.toHTTPError(err, "failed to delete record")
	}

	meta := RequestMetaFromContext(ctx)
	event := &audit.RecordDeletedEvent{
		Keyword:     deleted.Keyword,
		OriginalURL: deleted.Original,
		Input:       req.URL,
		DeletedAt:   time.Now(),
		ClientIP:    meta.ClientIP,
	}

	if err := h.publishers.RecordDeleted(ctx, event); err != nil {
		h.logger.Error("failed to publish audit event",
			zap.String("topic", audit.TopicRecordDeleted),
			zap.String("keyword", event.Keyword),
			zap.Error(err),
		)
	}

	resp := &MessageResponse{}
	resp.Body.Message = "Record deleted!"

	return resp, nil
}

func (h *RecordHandler) SearchRecord(ctx context.Context, req *SearchRecordRequest) (*SearchRecordResponse, error) {
	query, err := shortener.ParseField(req.By)
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}

	response := shortener.FieldOriginal
	if query == shortener.FieldOriginal {
		response = shortener.FieldShort
	}

	value := req.ShortKey
	if query == shortener.FieldOriginal {
		value = shortener.EnsureScheme(value)
	}

	res, err := h.service.Search(ctx, value, query, response)
	if err != nil {
		return nil, h.toHTTPError(err, "failed to search record")
	}

	if err := res.Err(); err != nil {
		return nil, h.toHTTPError(err, res.Message())
	}

	resp := &SearchRecordResponse{}
	resp.Body.Message = res.Message()
	resp.Body.Data.OriginalURL = res.Record.Original
	resp.Body.Data.ShortenedKey = res.Record.Keyword

	return resp, nil
}

func (h *RecordHandler) GetAllRecords(ctx context.Context, _ *struct{}) (*GetAllRecordsResponse, error) {
	records, err := h.service.List(ctx)
	if err != nil {
		return nil, h.toHTTPError(err, "failed to list records")
	}

	resp := &GetAllRecordsResponse{}
	resp.Body.Message = "Success"
	resp.Body.Data.Records = make([]RecordItem, 0, len(records))

	for _, r := range records {
		resp.Body.Data.Records = append(resp.Body.Data.Records, RecordItem{Original: r.Original, Short: r.Keyword})
	}

	return resp, nil
}

func (h *RecordHandler) DeleteAllRecords(ctx context.Context, _ *struct{}) (*MessageResponse, error) {
	if err := h.service.Purge(ctx); err != nil {
		return nil, h.toHTTPError(err, "failed to delete all records")
	}

	event := &audit.RecordsPurgedEvent{
		PurgedAt: time.Now(),
		ClientIP: RequestMetaFromContext(ctx).ClientIP,
	}

	if err := h.publishers.RecordsPurged(ctx, event); err != nil {
		h.logger.Error("failed to publish audit event",
			zap.String("topic", audit.TopicRecordsPurged),
			zap.Error(err),
		)
	}

	resp := &MessageResponse{}
	resp.Body.Message = "All records deleted!"

	return resp, nil
}

// AdminCheck only succeeds when the admin middleware accepted the request.
func (h *RecordHandler) AdminCheck(_ context.Context, _ *struct{}) (*MessageResponse, error) {
	resp := &MessageResponse{}
	resp.Body.Message = "Admin access granted"

	return resp, nil
}

func (h *RecordHandler) Redirect(ctx context.Context, req *RedirectRequest) (*RedirectResponse, error) {
	originalURL, err := h.service.Lookup(ctx, req.Keyword)
	if err != nil {
		return nil, h.toHTTPError(err, "failed to resolve keyword")
	}

	resp := &RedirectResponse{
		Status: http.StatusFound,
	}
	resp.Headers.Location = originalURL

	return resp, nil
}

func (h *RecordHandler) publishCreated(ctx context.Context, result shortener.CreateResult) {
	event := &audit.RecordCreatedEvent{
		Keyword:     result.Record.Keyword,
		OriginalURL: result.Record.Original,
		Custom:      result.Custom,
		CreatedAt:   time.Now(),
		ClientIP:    RequestMetaFromContext(ctx).ClientIP,
	}

	if err := h.publishers.RecordCreated(ctx, event); err != nil {
		h.logger.Error("failed to publish audit event",
			zap.String("topic", audit.TopicRecordCreated),
			zap.String("keyword", event.Keyword),
			zap.Error(err),
		)
	}
}

func (h *RecordHandler) shortURL(keyword string) string {
	return fmt.Sprintf("%s/%s", h.baseURL, keyword)
}

// deleteRecord deletes by the raw input first so original URLs that happen to
// start with the base URL still match as originals. A full short URL is only
// reduced to its keyword when the raw input matches nothing.
func (h *RecordHandler) deleteRecord(ctx context.Context, input string) (shortener.Record, error) {
	deleted, err := h.service.Delete(ctx, input)
	if !errors.Is(err, shortener.ErrNotFound) {
		return deleted, err
	}

	keyword := h.trimBaseURL(input)
	if keyword == input {
		return shortener.Record{}, err
	}

	return h.service.Delete(ctx, keyword)
}

// trimBaseURL reduces a full short URL, with or without protocol, to its keyword.
// Other input is returned unchanged.
func (h *RecordHandler) trimBaseURL(input string) string {
	base := strings.TrimSuffix(h.baseURL, "/") + "/"

	for _, prefix := range []string{base, stripScheme(base)} {
		if keyword, ok := strings.CutPrefix(input, prefix); ok && keyword != "" {
			return keyword
		}
	}

	return input
}

func stripScheme(u string) string {
	if _, rest, ok := strings.Cut(u, "://"); ok {
		return rest
	}

	return u
}

// toHTTPError maps lifecycle errors to HTTP errors. Unknown errors are logged
// and reported as internal errors with fallback as the message.
func (h *RecordHandler) toHTTPError(err error, fallback string) error {
	switch {
	case errors.Is(err, shortener.ErrIllegalKeyword):
		return huma.Error400BadRequest("Keyword is illegal!", err)
	case errors.Is(err, shortener.ErrInvalidURL):
		return huma.Error400BadRequest("URL is required", err)
	case errors.Is(err, shortener.ErrConflict):
		return huma.Error409Conflict("Keyword is occupied!")
	case errors.Is(err, shortener.ErrNotFound):
		return huma.Error404NotFound("No matching record found.")
	case errors.Is(err, shortener.ErrAmbiguous):
		return huma.NewError(http.StatusMultipleChoices, "Multiple found")
	case errors.Is(err, shortener.ErrExhausted):
		h.logger.Error("word pool exhausted")

		return huma.Error503ServiceUnavailable("No keywords available")
	default:
		h.logger.Error(fallback, zap.Error(err))

		return huma.Error500InternalServerError(fallback)
	}
}
