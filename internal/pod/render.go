package pod

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/freightline/freightline-backend/pkg/db/models"
	"github.com/freightline/freightline-backend/pkg/enums"
	pkgerrors "github.com/freightline/freightline-backend/pkg/errors"
)

// evidencePerPage bounds how many evidence blocks share one page after the
// timeline page.
const evidencePerPage = 4

type renderInput struct {
	Job         *models.Job
	Company     *models.Company
	Events      []models.JobStatusEvent
	Evidence    []models.EvidenceItem
	Files       map[string][]byte
	Version     int
	GeneratedAt time.Time
}

type eventView struct {
	Status     string
	OccurredAt string
	Note       string
	Coordinate string
}

type evidenceView struct {
	Kind         string
	Phase        string
	FileName     string
	ReceiverName string
	Note         string
	CapturedAt   string
	DataURI      template.URL
	ObjectKey    string
	IsImage      bool
	IsDocument   bool
	IsNote       bool
}

type pageView struct {
	Number int
	Items  []evidenceView
}

type documentView struct {
	ReferenceNumber string
	CompanyName     string
	PickupAddress   string
	DeliveryAddress string
	FinalStatus     string
	Version         int
	GeneratedAt     string
	Events          []eventView
	Pages           []pageView
	PageCount       int
}

// render produces the paginated HTML artifact and its page count. Images
// and signatures are inlined as data URIs so the document stands alone;
// PDFs are referenced by name and object key.
func render(input renderInput) ([]byte, int, error) {
	view := documentView{
		ReferenceNumber: input.Job.ReferenceNumber,
		PickupAddress:   input.Job.PickupAddress,
		DeliveryAddress: input.Job.DeliveryAddress,
		FinalStatus:     input.Job.CurrentStatus.String(),
		Version:         input.Version,
		GeneratedAt:     input.GeneratedAt.Format(time.RFC3339),
	}
	if input.Company != nil {
		view.CompanyName = input.Company.Name
	}

	for _, event := range input.Events {
		ev := eventView{
			Status:     event.Status.String(),
			OccurredAt: event.OccurredAt.Format(time.RFC3339),
		}
		if event.Note != nil {
			ev.Note = *event.Note
		}
		if event.Coordinate != nil {
			ev.Coordinate = fmt.Sprintf("%.6f, %.6f", event.Coordinate.Lat, event.Coordinate.Lng)
		}
		view.Events = append(view.Events, ev)
	}

	var items []evidenceView
	for _, item := range input.Evidence {
		iv := evidenceView{
			Kind:       item.Kind.String(),
			Phase:      item.Phase.String(),
			FileName:   item.FileName,
			ObjectKey:  item.ObjectKey,
			CapturedAt: item.CreatedAt.Format(time.RFC3339),
		}
		if item.ReceiverName != nil {
			iv.ReceiverName = *item.ReceiverName
		}
		if item.Note != nil {
			iv.Note = *item.Note
		}
		switch {
		case item.Kind == enums.EvidenceKindNote:
			iv.IsNote = true
		case strings.HasPrefix(item.MediaType, "image/"):
			iv.IsImage = true
			data, ok := input.Files[item.ObjectKey]
			if !ok {
				return nil, 0, pkgerrors.New(pkgerrors.CodeInternal,
					fmt.Sprintf("missing file content for evidence %s", item.ID))
			}
			iv.DataURI = template.URL(fmt.Sprintf("data:%s;base64,%s",
				item.MediaType, base64.StdEncoding.EncodeToString(data)))
		default:
			iv.IsDocument = true
		}
		items = append(items, iv)
	}

	for start := 0; start < len(items); start += evidencePerPage {
		end := start + evidencePerPage
		if end > len(items) {
			end = len(items)
		}
		view.Pages = append(view.Pages, pageView{
			Number: len(view.Pages) + 2,
			Items:  items[start:end],
		})
	}
	view.PageCount = 1 + len(view.Pages)

	var buf bytes.Buffer
	if err := documentTemplate.Execute(&buf, view); err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render document")
	}
	return buf.Bytes(), view.PageCount, nil
}

var documentTemplate = template.Must(template.New("pod").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Proof of Delivery {{.ReferenceNumber}} v{{.Version}}</title>
<style>
body { font-family: sans-serif; margin: 0; color: #1a1a1a; }
.page { page-break-after: always; padding: 32px; min-height: 26cm; }
.page:last-child { page-break-after: auto; }
h1 { font-size: 20px; margin-bottom: 4px; }
.meta { color: #555; font-size: 12px; margin-bottom: 24px; }
table { border-collapse: collapse; width: 100%; font-size: 13px; }
th, td { border: 1px solid #ccc; padding: 6px 10px; text-align: left; }
.evidence { border: 1px solid #ddd; padding: 12px; margin-bottom: 16px; }
.evidence img { max-width: 100%; max-height: 420px; }
.label { font-size: 11px; text-transform: uppercase; color: #777; }
.footer { font-size: 11px; color: #999; margin-top: 24px; }
</style>
</head>
<body>
<div class="page">
<h1>Proof of Delivery &mdash; {{.ReferenceNumber}}</h1>
<div class="meta">
{{if .CompanyName}}Posted by {{.CompanyName}} &middot; {{end}}Final status: {{.FinalStatus}} &middot; Version {{.Version}} &middot; Generated {{.GeneratedAt}}
</div>
{{if .PickupAddress}}<p><span class="label">Pickup</span> {{.PickupAddress}}</p>{{end}}
{{if .DeliveryAddress}}<p><span class="label">Delivery</span> {{.DeliveryAddress}}</p>{{end}}
<h2>Status Timeline</h2>
<table>
<tr><th>Status</th><th>At</th><th>Note</th><th>Location</th></tr>
{{range .Events}}<tr><td>{{.Status}}</td><td>{{.OccurredAt}}</td><td>{{.Note}}</td><td>{{.Coordinate}}</td></tr>
{{end}}</table>
<div class="footer">Page 1 of {{.PageCount}}</div>
</div>
{{range .Pages}}<div class="page">
<h2>Evidence</h2>
{{range .Items}}<div class="evidence">
<div class="label">{{.Kind}} &middot; {{.Phase}} &middot; {{.CapturedAt}}</div>
{{if .IsImage}}<img src="{{.DataURI}}" alt="{{.FileName}}">{{end}}
{{if .IsDocument}}<p>Document: {{.FileName}} ({{.ObjectKey}})</p>{{end}}
{{if .IsNote}}<p>{{.Note}}</p>{{end}}
{{if .ReceiverName}}<p>Received by <strong>{{.ReceiverName}}</strong> at {{.CapturedAt}}</p>{{end}}
{{if and .Note (not .IsNote)}}<p>{{.Note}}</p>{{end}}
</div>
{{end}}<div class="footer">Page {{.Number}} of {{$.PageCount}}</div>
</div>
{{end}}</body>
</html>
`))
