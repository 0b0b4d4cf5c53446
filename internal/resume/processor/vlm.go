package processor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/talentscan/talentscan-backend/internal/resume/domain"
	"github.com/talentscan/talentscan-backend/internal/resume/vision"
	"github.com/talentscan/talentscan-backend/pkg/logger"
)

// Image magic bytes. WEBP is RIFF....WEBP.
var (
	jpegMagic = []byte{0xFF, 0xD8, 0xFF}
	pngMagic  = []byte{0x89, 0x50, 0x4E, 0x47}
	riffMagic = []byte("RIFF")
	webpMagic = []byte("WEBP")
)

const extractionInstruction = `You are an expert resume parser. Read this resume image and extract the details below.
Return ONLY a valid JSON object, without Markdown formatting.
Fields to extract:
- Name
- Phone (10 digit number, or with country code as +91 XXXXXXXXXX)
- Email
- College
- Degree (highest degree only, e.g. B.Tech, M.Tech, B.E, M.E, Bachelor, Master)
- Department
- district
- state
- Passed Out (year of graduation)
If a value is not found, use "Not Specified".`

// maxLoggedResponse bounds how much of a bad model answer goes into the log
const maxLoggedResponse = 2000

// VLMProcessor extracts resume fields from images with a vision-language model
type VLMProcessor struct {
	model   vision.Model
	timeout time.Duration
	schema  *jsonschema.Schema
	field   *jsonschema.Schema
	log     *logger.Logger
}

// NewVLMProcessor creates a new VLM processor. timeout bounds each model call;
// zero leaves the caller's deadline in charge.
func NewVLMProcessor(model vision.Model, timeout time.Duration, log *logger.Logger) (*VLMProcessor, error) {
	schema, err := compileSchema("vision_response.json", visionResponseSchema)
	if err != nil {
		return nil, fmt.Errorf("vlm: %w", err)
	}
	field, err := compileSchema("vision_field.json", visionFieldSchema)
	if err != nil {
		return nil, fmt.Errorf("vlm: %w", err)
	}
	return &VLMProcessor{
		model:   model,
		timeout: timeout,
		schema:  schema,
		field:   field,
		log:     log.WithComponent("vlm"),
	}, nil
}

func (p *VLMProcessor) Name() string { return "vlm" }

func (p *VLMProcessor) CanProcess(kind domain.FileKind) bool {
	return kind.IsImage()
}

// Process returns a *domain.ExtractionFailure for every failure mode: unreadable
// file, non-image bytes, model error or timeout, and malformed answers.
func (p *VLMProcessor) Process(ctx context.Context, path string, kind domain.FileKind) (*domain.CandidateRecord, error) {
	fail := func(raw string, cause error) (*domain.CandidateRecord, error) {
		ev := p.log.Warn().Err(cause).Str("path", path)
		if raw != "" {
			ev = ev.Str("raw_response", truncate(raw, maxLoggedResponse))
		}
		ev.Msg("vision extraction failed")
		return nil, &domain.ExtractionFailure{Filename: path, RawResponse: raw, Cause: cause}
	}

	image, err := os.ReadFile(path)
	if err != nil {
		return fail("", fmt.Errorf("read image: %w", err))
	}
	if !isImageData(image) {
		return fail("", errors.New("data is not a PNG, JPEG or WEBP image"))
	}

	callCtx := ctx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := p.model.Generate(callCtx, extractionInstruction, image, kind.MIMEType())
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("model call timed out after %s: %w", p.timeout, err)
		}
		return fail(raw, err)
	}

	rec, err := p.parseResponse(raw)
	if err != nil {
		return fail(raw, err)
	}

	p.log.Info().
		Str("path", path).
		Dur("duration", time.Since(start)).
		Bool("has_email", rec.HasEmail()).
		Msg("vision extraction done")

	return rec, nil
}

// parseResponse strips code fences, validates the shape and maps keys onto a
// record. Keys that map to no field are ignored whatever their type.
func (p *VLMProcessor) parseResponse(raw string) (*domain.CandidateRecord, error) {
	clean := stripCodeFences(raw)

	var payload any
	dec := json.NewDecoder(strings.NewReader(clean))
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("response is not JSON: %w", err)
	}
	if dec.More() {
		return nil, errors.New("response has trailing data after the JSON object")
	}
	if err := p.schema.Validate(payload); err != nil {
		return nil, fmt.Errorf("response does not match schema: %w", err)
	}

	obj := payload.(map[string]any)
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	// when aliases collide, a real value beats the sentinel
	rec := domain.NewCandidateRecord()
	for _, key := range keys {
		field := recordField(rec, key)
		if field == nil {
			continue
		}
		if err := p.field.Validate(obj[key]); err != nil {
			return nil, fmt.Errorf("field %q does not match schema: %w", key, err)
		}
		if v := scalarString(obj[key]); domain.IsSpecified(v) || !domain.IsSpecified(*field) {
			*field = v
		}
	}
	rec.Normalize()
	return rec, nil
}

// fieldAliases maps normalized model keys onto record fields
var fieldAliases = map[string]func(*domain.CandidateRecord) *string{
	"name":           func(r *domain.CandidateRecord) *string { return &r.Name },
	"fullname":       func(r *domain.CandidateRecord) *string { return &r.Name },
	"email":          func(r *domain.CandidateRecord) *string { return &r.Email },
	"emailaddress":   func(r *domain.CandidateRecord) *string { return &r.Email },
	"phone":          func(r *domain.CandidateRecord) *string { return &r.Phone },
	"phonenumber":    func(r *domain.CandidateRecord) *string { return &r.Phone },
	"contact":        func(r *domain.CandidateRecord) *string { return &r.Phone },
	"mobile":         func(r *domain.CandidateRecord) *string { return &r.Phone },
	"college":        func(r *domain.CandidateRecord) *string { return &r.College },
	"university":     func(r *domain.CandidateRecord) *string { return &r.College },
	"degree":         func(r *domain.CandidateRecord) *string { return &r.Degree },
	"department":     func(r *domain.CandidateRecord) *string { return &r.Department },
	"branch":         func(r *domain.CandidateRecord) *string { return &r.Department },
	"state":          func(r *domain.CandidateRecord) *string { return &r.State },
	"district":       func(r *domain.CandidateRecord) *string { return &r.District },
	"city":           func(r *domain.CandidateRecord) *string { return &r.District },
	"passedout":      func(r *domain.CandidateRecord) *string { return &r.YearPassing },
	"year":           func(r *domain.CandidateRecord) *string { return &r.YearPassing },
	"yearpassing":    func(r *domain.CandidateRecord) *string { return &r.YearPassing },
	"yearofpassing":  func(r *domain.CandidateRecord) *string { return &r.YearPassing },
	"graduationyear": func(r *domain.CandidateRecord) *string { return &r.YearPassing },
}

func recordField(rec *domain.CandidateRecord, key string) *string {
	var b strings.Builder
	for _, r := range strings.ToLower(key) {
		if unicode.IsLetter(r) {
			b.WriteRune(r)
		}
	}
	if get, ok := fieldAliases[b.String()]; ok {
		return get(rec)
	}
	return nil
}

func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		if i, err := strconv.ParseInt(t.String(), 10, 64); err == nil {
			return strconv.FormatInt(i, 10)
		}
		return t.String()
	}
	return ""
}

func stripCodeFences(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```JSON", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// isImageData checks for PNG, JPEG or WEBP magic bytes
func isImageData(data []byte) bool {
	if len(data) < 4 {
		return false
	}
	if bytes.HasPrefix(data, jpegMagic) || bytes.HasPrefix(data, pngMagic) {
		return true
	}
	return len(data) >= 12 && bytes.HasPrefix(data, riffMagic) && bytes.Equal(data[8:12], webpMagic)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
