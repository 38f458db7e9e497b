package handlers

// MessageResponse is the response for operations that only report a message.
type MessageResponse struct {
	Body struct {
		Message string `doc:"Human readable result" example:"Record deleted!" json:"message"`
	}
}

// CreateRecordRequest is the request body for creating a record.
type CreateRecordRequest struct {
	Body struct {
		URL           string `doc:"The URL to shorten, https:// is assumed when missing" example:"example.com/very/long/path" json:"url"                      minLength:"1"`
		CustomKeyword string `doc:"Optional alphanumeric keyword, a dictionary word is assigned when empty" example:"apple" json:"custom_keyword,omitempty" maxLength:"64"`
	}
}

// CreateRecordResponse is returned for created and already existing records.
type CreateRecordResponse struct {
	Status int
	Body   struct {
		Message string `doc:"Human readable result" example:"Record created!" json:"message"`
		Data    struct {
			ShortenedKey string `doc:"The assigned keyword"    example:"apple"                        json:"shortened_key"`
			ShortURL     string `doc:"The full short URL"      example:"http://localhost:8000/apple"  json:"short_url"`
			OriginalURL  string `doc:"The stored original URL" example:"https://example.com/long/path" json:"original_url"`
		} `json:"data"`
	}
}

// DeleteRecordRequest identifies the record to delete.
type DeleteRecordRequest struct {
	URL string `doc:"A keyword, short URL path or original URL" example:"apple" query:"url" required:"true"`
}

// SearchRecordRequest looks up a record by keyword or original URL.
type SearchRecordRequest struct {
	ShortKey string `doc:"The value to look up"                 example:"apple" query:"short_key" required:"true"`
	By       string `doc:"Which side of the record to match on" default:"short" enum:"short,original" query:"by"`
}

// SearchRecordResponse carries both sides of the matching record.
type SearchRecordResponse struct {
	Body struct {
		Message string `doc:"Human readable result" example:"Got one record" json:"message"`
		Data    struct {
			OriginalURL  string `doc:"The original URL" example:"https://example.com" json:"original_url"`
			ShortenedKey string `doc:"The keyword"      example:"apple"               json:"shortened_key"`
		} `json:"data"`
	}
}

// RecordItem is one record in a listing.
type RecordItem struct {
	Original string `doc:"The original URL" example:"https://example.com" json:"orig"`
	Short    string `doc:"The keyword"      example:"apple"               json:"short"`
}

// GetAllRecordsResponse lists every record.
type GetAllRecordsResponse struct {
	Body struct {
		Message string `doc:"Human readable result" example:"Success" json:"message"`
		Data    struct {
			Records []RecordItem `json:"records"`
		} `json:"data"`
	}
}

// RedirectRequest is the request for redirecting a keyword.
type RedirectRequest struct {
	Keyword string `doc:"The keyword" example:"apple" path:"keyword"`
}

// RedirectResponse redirects to the original URL.
type RedirectResponse struct {
	Status  int
	Headers struct {
		Location string `header:"Location"`
	}
}
