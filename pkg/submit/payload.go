// Package submit transforms a flat form record plus optional attachments
// into a backend-ready payload and posts it to the ticketing proxy. Backend
// failures are values, not errors: callers always get a normalized Result.
package submit

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/necyberteam/qabot/pkg/domain"
)

// Category selects the service desk and request type a ticket is routed to.
type Category string

const (
	CategorySupport       Category = "support"
	CategoryLoginAccess   Category = "loginAccess"
	CategoryLoginProvider Category = "loginProvider"
	CategoryDev           Category = "dev"
)

// Proxy endpoint names.
const (
	EndpointSupport  = "create-support-ticket"
	EndpointDev      = "dev-create-support-ticket"
	EndpointSecurity = "create-security-ticket"
)

// Service desk identifiers. Dev tickets route to a different desk than all
// other categories.
const (
	supportDeskID = 2
	devDeskID     = 3
)

type routing struct {
	serviceDesk int
	requestType int
}

var routes = map[Category]routing{
	CategorySupport:       {serviceDesk: supportDeskID, requestType: 17},
	CategoryLoginAccess:   {serviceDesk: supportDeskID, requestType: 26},
	CategoryLoginProvider: {serviceDesk: supportDeskID, requestType: 27},
	CategoryDev:           {serviceDesk: devDeskID, requestType: 10},
}

// Attachment is one encoded file ready for the proxy. Content is the raw
// bytes, base64 encoded; no multipart is involved.
type Attachment struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	Content     string `json:"content"`
}

// Payload is the JSON body posted to the ticketing proxy.
type Payload struct {
	ServiceDeskID      int            `json:"serviceDeskId"`
	RequestTypeID      int            `json:"requestTypeId"`
	RequestFieldValues map[string]any `json:"requestFieldValues"`
	Attachments        []Attachment   `json:"attachments,omitempty"`
}

// Prepare builds the proxy payload for one submission. All files are read
// concurrently but the payload is only ready once every read completed; a
// single failed read aborts the whole payload with an attachment-specific
// error so partial sets are never sent silently.
func Prepare(ctx context.Context, form domain.FormRecord, category Category, files []domain.File) (*Payload, error) {
	route, ok := routes[category]
	if !ok {
		return nil, fmt.Errorf("unknown ticket category %q", category)
	}

	fields := make(map[string]any, len(form))
	for k, v := range form {
		// File lists live in the attachments section, not the field values.
		if _, isFiles := v.([]domain.File); isFiles {
			continue
		}
		fields[k] = v
	}

	payload := &Payload{
		ServiceDeskID:      route.serviceDesk,
		RequestTypeID:      route.requestType,
		RequestFieldValues: fields,
	}

	if len(files) == 0 {
		return payload, nil
	}

	attachments := make([]Attachment, len(files))
	g, ctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			encoded, err := encodeFile(f)
			if err != nil {
				return fmt.Errorf("attachment %s: %w", f.Name, err)
			}
			attachments[i] = encoded
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	payload.Attachments = attachments
	return payload, nil
}

func encodeFile(f domain.File) (Attachment, error) {
	if f.Open == nil {
		return Attachment{}, fmt.Errorf("no content reader")
	}
	rc, err := f.Open()
	if err != nil {
		return Attachment{}, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return Attachment{}, err
	}

	return Attachment{
		FileName:    f.Name,
		ContentType: f.ContentType,
		Size:        f.Size,
		Content:     base64.StdEncoding.EncodeToString(data),
	}, nil
}
