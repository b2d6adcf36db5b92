// Package diagnostics attaches effectivity resolution to diagnostic requests on their way
// to the AI diagnostic service and to the answers on their way back.
package diagnostics

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"go.opentelemetry.io/otel/attribute"

	"github.com/fariasvn/aw139-diagnostics-platform-sub000/pkg/httpclient"
	"github.com/fariasvn/aw139-diagnostics-platform-sub000/pkg/models"
	"github.com/fariasvn/aw139-diagnostics-platform-sub000/pkg/tracing"
)

const (
	diagnosePath = "/diagnose"

	warnNoSerial = "no serial number supplied, aircraft configuration not verified"
)

var partNumberPattern = regexp.MustCompile(`(?i)P/N[:\s]*([A-Z0-9-]{6,})`)

type ConfigurationResolver interface {
	ResolveConfiguration(ctx context.Context, serialNumber string) models.ConfigurationResolution
}

type PartsResolver interface {
	GetApplicableParts(ctx context.Context, partNumbers []string, configurationCode string) models.PartApplicability
}

// Forwarder posts JSON to the diagnostic service. *httpclient.Client satisfies it.
type Forwarder interface {
	PostJSON(ctx context.Context, path string, body any, result any) (*httpclient.Response, error)
}

type Service struct {
	logger         ectologger.Logger
	configurations ConfigurationResolver
	parts          PartsResolver
	forwarder      Forwarder
}

// NewService builds the annotator. A nil forwarder disables Diagnose.
func NewService(logger ectologger.Logger, configurations ConfigurationResolver, parts PartsResolver, forwarder Forwarder) *Service {
	return &Service{
		logger:         logger,
		configurations: configurations,
		parts:          parts,
		forwarder:      forwarder,
	}
}

// Annotate resolves the request's serial and fills in the configuration fields. The
// resolved configuration replaces whatever the caller supplied.
func (s *Service) Annotate(ctx context.Context, req *Request) models.ConfigurationResolution {
	ctx, span := tracing.StartSpan(ctx, "diagnostics.Annotate", attribute.String("serial_number", req.SerialNumber))
	defer span.End()

	if strings.TrimSpace(req.SerialNumber) == "" {
		return models.ConfigurationResolution{
			ConfigurationCode: strings.ToUpper(strings.TrimSpace(req.AircraftConfiguration)),
			ConfigurationName: req.ConfigurationName,
			Resolved:          false,
			Warning:           warnNoSerial,
		}
	}

	resolution := s.configurations.ResolveConfiguration(ctx, req.SerialNumber)
	if !resolution.Resolved {
		return resolution
	}

	if req.AircraftConfiguration != "" && !strings.EqualFold(req.AircraftConfiguration, resolution.ConfigurationCode) {
		s.logger.WithContext(ctx).WithFields(map[string]any{
			"serial_number": req.SerialNumber,
			"supplied":      req.AircraftConfiguration,
			"resolved":      resolution.ConfigurationCode,
		}).Warn("Supplied aircraft configuration does not match the resolved configuration")
	}
	req.AircraftConfiguration = resolution.ConfigurationCode
	req.ConfigurationName = resolution.ConfigurationName

	return resolution
}

// Diagnose annotates the request, forwards it and annotates the answer.
func (s *Service) Diagnose(ctx context.Context, req Request) (*Response, error) {
	ctx, span := tracing.StartSpan(ctx, "diagnostics.Diagnose")
	defer span.End()

	if strings.TrimSpace(req.Query) == "" {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, "query is required")
	}
	if s.forwarder == nil {
		return nil, httperror.NewHTTPError(http.StatusServiceUnavailable, "diagnostic service is not configured")
	}

	resolution := s.Annotate(ctx, &req)

	var resp Response
	if _, err := s.forwarder.PostJSON(ctx, diagnosePath, req, &resp); err != nil {
		tracing.RecordError(span, err)
		s.logger.WithContext(ctx).WithError(err).Error("Diagnostic request failed")

		var statusErr *httpclient.StatusError
		switch {
		case errors.As(err, &statusErr):
			return nil, httperror.NewHTTPErrorf(http.StatusBadGateway, "diagnostic service returned status %d", statusErr.StatusCode)
		case errors.Is(err, context.DeadlineExceeded):
			return nil, httperror.NewHTTPError(http.StatusGatewayTimeout, "diagnostic service timed out")
		default:
			return nil, httperror.NewHTTPError(http.StatusBadGateway, "diagnostic service unavailable")
		}
	}

	s.AnnotateResponse(ctx, &resp, resolution)
	return &resp, nil
}

// AnnotateResponse classifies the parts a diagnosis names against the aircraft
// configuration and attaches the effectivity block.
func (s *Service) AnnotateResponse(ctx context.Context, resp *Response, resolution models.ConfigurationResolution) {
	ctx, span := tracing.StartSpan(ctx, "diagnostics.AnnotateResponse")
	defer span.End()

	annotation := &EffectivityAnnotation{Configuration: resolution}
	if resolution.Warning != "" {
		annotation.Warnings = append(annotation.Warnings, resolution.Warning)
	}

	partNumbers := mentionedParts(resp)
	if len(partNumbers) > 0 {
		parts := s.parts.GetApplicableParts(ctx, partNumbers, resolution.ConfigurationCode)
		annotation.Parts = &parts
		if parts.Warning != "" && parts.Warning != resolution.Warning {
			annotation.Warnings = append(annotation.Warnings, parts.Warning)
		}

		status := make(map[string]models.ApplicabilityStatus, len(partNumbers))
		for _, pn := range parts.Applicable {
			status[pn] = models.StatusApplicable
		}
		for _, pn := range parts.NotApplicable {
			status[pn] = models.StatusNotApplicable
		}
		for _, pn := range parts.Unknown {
			status[pn] = models.StatusUnknown
		}
		for i := range resp.AffectedParts {
			if st, ok := status[normalizePart(resp.AffectedParts[i].PartNumber)]; ok {
				resp.AffectedParts[i].Applicability = st
			}
		}
	}

	resp.Effectivity = annotation
}

// mentionedParts collects the affected part numbers plus any "P/N" references in the
// diagnosis text, upper-cased and in first-seen order.
func mentionedParts(resp *Response) []string {
	seen := map[string]struct{}{}
	var out []string
	add := func(pn string) {
		pn = normalizePart(pn)
		if pn == "" {
			return
		}
		if _, ok := seen[pn]; ok {
			return
		}
		seen[pn] = struct{}{}
		out = append(out, pn)
	}

	for _, part := range resp.AffectedParts {
		add(part.PartNumber)
	}
	for _, m := range partNumberPattern.FindAllStringSubmatch(resp.Diagnosis, -1) {
		add(m[1])
	}
	return out
}

func normalizePart(pn string) string {
	return strings.ToUpper(strings.TrimSpace(pn))
}
