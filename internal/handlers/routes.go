package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// APIPrefix is the path prefix of the record API.
const APIPrefix = "/api/v2"

// AdminMetadataKey marks operations that require the admin bearer token.
const AdminMetadataKey = "admin"

// IsAdminOperation reports whether op was registered as admin only.
func IsAdminOperation(op *huma.Operation) bool {
	if op == nil || op.Metadata == nil {
		return false
	}

	admin, _ := op.Metadata[AdminMetadataKey].(bool)

	return admin
}

// RegisterRoutes registers the record API and the keyword redirect.
func RegisterRoutes(api huma.API, h *RecordHandler) {
	admin := map[string]any{AdminMetadataKey: true}
	adminSecurity := []map[string][]string{{"bearer": {}}}

	huma.Register(api, huma.Operation{
		OperationID: "status",
		Method:      http.MethodGet,
		Path:        APIPrefix + "/status",
		Summary:     "Service status",
		Tags:        []string{"Status"},
	}, h.Status)

	huma.Register(api, huma.Operation{
		OperationID:   "create-record",
		Method:        http.MethodPost,
		Path:          APIPrefix + "/create_record",
		Summary:       "Create record",
		Description:   "Maps a URL to a custom keyword or to a random dictionary word.",
		Tags:          []string{"Records"},
		DefaultStatus: http.StatusCreated,
	}, h.CreateRecord)

	huma.Register(api, huma.Operation{
		OperationID: "delete-record",
		Method:      http.MethodDelete,
		Path:        APIPrefix + "/delete_record",
		Summary:     "Delete record",
		Description: "Deletes the record matching a keyword, short URL or original URL and returns its word to the pool.",
		Tags:        []string{"Records"},
		Security:    adminSecurity,
		Metadata:    admin,
	}, h.DeleteRecord)

	huma.Register(api, huma.Operation{
		OperationID: "search-record",
		Method:      http.MethodGet,
		Path:        APIPrefix + "/search_record",
		Summary:     "Search record",
		Tags:        []string{"Records"},
	}, h.SearchRecord)

	huma.Register(api, huma.Operation{
		OperationID: "get-all-records",
		Method:      http.MethodGet,
		Path:        APIPrefix + "/get_all_records",
		Summary:     "List records",
		Tags:        []string{"Records"},
		Security:    adminSecurity,
		Metadata:    admin,
	}, h.GetAllRecords)

	huma.Register(api, huma.Operation{
		OperationID: "delete-all-records",
		Method:      http.MethodDelete,
		Path:        APIPrefix + "/delete_all_records",
		Summary:     "Delete all records",
		Description: "Deletes every record and marks every dictionary word unused.",
		Tags:        []string{"Records"},
		Security:    adminSecurity,
		Metadata:    admin,
	}, h.DeleteAllRecords)

	huma.Register(api, huma.Operation{
		OperationID: "admin-check",
		Method:      http.MethodGet,
		Path:        APIPrefix + "/admin_check",
		Summary:     "Check admin token",
		Tags:        []string{"Status"},
		Security:    adminSecurity,
		Metadata:    admin,
	}, h.AdminCheck)

	huma.Register(api, huma.Operation{
		OperationID: "redirect",
		Method:      http.MethodGet,
		Path:        "/{keyword}",
		Summary:     "Redirect to original URL",
		Tags:        []string{"Records"},
	}, h.Redirect)
}
