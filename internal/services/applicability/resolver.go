// Package applicability classifies part numbers and effectivity codes for an aircraft
// as applicable, not applicable or unknown. Unknown is never folded into not applicable.
package applicability

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"go.opentelemetry.io/otel/attribute"

	"github.com/fariasvn/aw139-diagnostics-platform-sub000/pkg/effectivity"
	"github.com/fariasvn/aw139-diagnostics-platform-sub000/pkg/metrics"
	"github.com/fariasvn/aw139-diagnostics-platform-sub000/pkg/models"
	"github.com/fariasvn/aw139-diagnostics-platform-sub000/pkg/tracing"
)

const (
	warnNoConfiguration = "No aircraft configuration resolved - part applicability cannot be verified"
	warnPartsStore      = "Unable to verify part applicability: effectivity database unavailable - contact an administrator"
	warnInvalidSerial   = "Invalid serial number format: %q - effectivity cannot be verified"
	warnNoRevision      = "No effectivity revision has been seeded - effectivity cannot be verified"
	warnCodesStore      = "Unable to verify effectivity codes: effectivity database unavailable - contact an administrator"

	reasonDeleted        = "deleted"
	reasonOutsideRanges  = "serial outside effectivity ranges"
	reasonNotInRevision  = "code not found in current effectivity revision"
	reasonConfigMismatch = "aircraft configuration is %s"
)

type CuratedRepository interface {
	PartEffectivities(ctx context.Context, partNumbers []string, configurationCode string) ([]models.PartEffectivity, error)
}

type EffectivityRepository interface {
	GetCurrentRevision(ctx context.Context) (*models.Revision, error)
	CodesByNames(ctx context.Context, revisionID int64, codes []string) ([]models.EffectivityCode, error)
	RangesContaining(ctx context.Context, revisionID int64, serial int) ([]models.SerialRange, error)
	CodesForSerial(ctx context.Context, revisionID int64, serial int) ([]models.EffectivityCode, error)
}

type ConfigurationResolver interface {
	ResolveConfiguration(ctx context.Context, serialNumber string) models.ConfigurationResolution
}

type Resolver struct {
	logger         ectologger.Logger
	curated        CuratedRepository
	effectivity    EffectivityRepository
	configurations ConfigurationResolver
}

func NewResolver(logger ectologger.Logger, curated CuratedRepository, effectivity EffectivityRepository, configurations ConfigurationResolver) *Resolver {
	return &Resolver{
		logger:         logger,
		curated:        curated,
		effectivity:    effectivity,
		configurations: configurations,
	}
}

// GetApplicableParts classifies part numbers for one configuration. A part with no
// curated row is unknown.
func (r *Resolver) GetApplicableParts(ctx context.Context, partNumbers []string, configurationCode string) models.PartApplicability {
	ctx, span := tracing.StartSpan(ctx, "applicability.GetApplicableParts", attribute.String("configuration_code", configurationCode))
	defer span.End()
	start := time.Now()

	configurationCode = strings.ToUpper(strings.TrimSpace(configurationCode))
	parts := normalizeParts(partNumbers)
	result := models.PartApplicability{
		ConfigurationCode: configurationCode,
		Applicable:        []string{},
		NotApplicable:     []string{},
		Unknown:           []string{},
	}

	outcome := "classified"
	defer func() {
		metrics.RecordResolution("parts", outcome, time.Since(start).Seconds())
	}()

	if configurationCode == "" {
		outcome = "unresolved"
		result.Unknown = append(result.Unknown, parts...)
		result.Warning = warnNoConfiguration
		return result
	}
	if len(parts) == 0 {
		return result
	}

	rows, err := r.curated.PartEffectivities(ctx, parts, configurationCode)
	if err != nil {
		outcome = "error"
		tracing.RecordError(span, err)
		r.logger.WithContext(ctx).WithError(err).WithField("configuration_code", configurationCode).Error("Failed to load part effectivities")
		result.Unknown = append(result.Unknown, parts...)
		result.Warning = warnPartsStore
		return result
	}

	applicable := make(map[string]bool, len(rows))
	for _, row := range rows {
		applicable[strings.ToUpper(row.PartNumber)] = row.IsApplicable
	}

	for _, pn := range parts {
		isApplicable, ok := applicable[strings.ToUpper(pn)]
		switch {
		case !ok:
			result.Unknown = append(result.Unknown, pn)
		case isApplicable:
			result.Applicable = append(result.Applicable, pn)
		default:
			result.NotApplicable = append(result.NotApplicable, pn)
		}
	}

	return result
}

// ResolveEffectivityCodes classifies raw effectivity tokens for a serial. Family tokens
// are checked against the resolved configuration and every other token against the
// current revision's serial ranges.
func (r *Resolver) ResolveEffectivityCodes(ctx context.Context, serialNumber string, tokens []string) models.CodeApplicability {
	ctx, span := tracing.StartSpan(ctx, "applicability.ResolveEffectivityCodes", attribute.String("serial_number", serialNumber))
	defer span.End()
	start := time.Now()

	result := models.CodeApplicability{
		SerialNumber:  serialNumber,
		Results:       []models.CodeResult{},
		Applicable:    []string{},
		NotApplicable: []string{},
		Unknown:       []string{},
	}

	outcome := "classified"
	defer func() {
		metrics.RecordResolution("codes", outcome, time.Since(start).Seconds())
	}()

	type pending struct {
		token  string
		code   string
		family string
	}
	var items []pending
	var names []string
	seen := map[string]bool{}
	for _, tok := range tokens {
		code := effectivity.NormalizeToken(tok)
		if code == "" {
			continue
		}
		item := pending{token: tok, code: code}
		if family, ok := effectivity.FamilyForToken(code); ok {
			item.family = family
		} else if !seen[code] {
			seen[code] = true
			names = append(names, code)
		}
		items = append(items, item)
	}

	serial, err := effectivity.ParseSerial(serialNumber)
	if err != nil {
		outcome = "invalid"
		result.Warning = fmt.Sprintf(warnInvalidSerial, serialNumber)
		for _, it := range items {
			result.Add(models.CodeResult{Token: it.token, Code: it.code, Status: models.StatusUnknown, Reason: result.Warning})
		}
		return result
	}

	config := r.configurations.ResolveConfiguration(ctx, serialNumber)
	if config.Resolved {
		result.ConfigurationCode = config.ConfigurationCode
	}

	var (
		codes      = map[string]models.EffectivityCode{}
		containing = map[string]bool{}
		storeWarn  string
	)
	if len(names) > 0 {
		codes, containing, storeWarn = r.lookupCodes(ctx, &result, serial, names)
		if storeWarn != "" {
			outcome = "unresolved"
			result.Warning = storeWarn
		}
	}

	for _, it := range items {
		if it.family != "" {
			result.Add(familyResult(it.token, it.code, it.family, config))
			if !config.Resolved && result.Warning == "" {
				result.Warning = config.Warning
			}
			continue
		}

		if storeWarn != "" {
			result.Add(models.CodeResult{Token: it.token, Code: it.code, Status: models.StatusUnknown, Reason: storeWarn})
			continue
		}

		code, ok := codes[it.code]
		switch {
		case !ok:
			result.Add(models.CodeResult{Token: it.token, Code: it.code, Status: models.StatusUnknown, Reason: reasonNotInRevision})
		case code.IsDeleted:
			result.Add(models.CodeResult{Token: it.token, Code: it.code, Status: models.StatusNotApplicable, Reason: reasonDeleted, Description: code.Description})
		case containing[it.code]:
			res := models.CodeResult{
				Token:                 it.token,
				Code:                  it.code,
				Status:                models.StatusApplicable,
				Description:           code.Description,
				IsConditional:         code.IsConditional,
				ConditionalPartNumber: code.ConditionalPartNumber,
			}
			if code.IsConditional {
				res.Reason = "applicable by serial; conditional on installed equipment"
				if code.ConditionalPartNumber != "" {
					res.Reason = fmt.Sprintf("applicable by serial; conditional on P/N %s", code.ConditionalPartNumber)
				}
			}
			result.Add(res)
		default:
			result.Add(models.CodeResult{Token: it.token, Code: it.code, Status: models.StatusNotApplicable, Reason: reasonOutsideRanges, Description: code.Description})
		}
	}

	return result
}

// lookupCodes loads the named codes of the current revision and the codes whose ranges
// contain serial. A non-empty warning means none of them could be verified.
func (r *Resolver) lookupCodes(ctx context.Context, result *models.CodeApplicability, serial int, names []string) (map[string]models.EffectivityCode, map[string]bool, string) {
	rev, err := r.effectivity.GetCurrentRevision(ctx)
	if err != nil {
		if httperror.IsHTTPError(err) && httperror.GetStatusCode(err) == http.StatusNotFound {
			return nil, nil, warnNoRevision
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to load current effectivity revision")
		return nil, nil, warnCodesStore
	}
	result.Revision = rev.Revision

	stored, err := r.effectivity.CodesByNames(ctx, rev.ID, names)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to load effectivity codes")
		return nil, nil, warnCodesStore
	}
	ranges, err := r.effectivity.RangesContaining(ctx, rev.ID, serial)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to load serial ranges")
		return nil, nil, warnCodesStore
	}

	codes := make(map[string]models.EffectivityCode, len(stored))
	for _, c := range stored {
		codes[c.Code] = c
	}
	containing := make(map[string]bool, len(ranges))
	for _, sr := range ranges {
		containing[sr.Code] = true
	}
	return codes, containing, ""
}

func familyResult(token, code, family string, config models.ConfigurationResolution) models.CodeResult {
	res := models.CodeResult{Token: token, Code: code}
	switch {
	case !config.Resolved:
		res.Status = models.StatusUnknown
		res.Reason = config.Warning
	case config.ConfigurationCode == family:
		res.Status = models.StatusApplicable
		res.Description = config.ConfigurationName
	default:
		res.Status = models.StatusNotApplicable
		res.Reason = fmt.Sprintf(reasonConfigMismatch, config.ConfigurationCode)
	}
	return res
}

// ListCodesForSerial returns every current-revision code whose ranges contain the serial.
func (r *Resolver) ListCodesForSerial(ctx context.Context, serialNumber string) models.CodesForSerial {
	ctx, span := tracing.StartSpan(ctx, "applicability.ListCodesForSerial", attribute.String("serial_number", serialNumber))
	defer span.End()
	start := time.Now()

	result := models.CodesForSerial{SerialNumber: serialNumber, Codes: []models.SerialCode{}}
	outcome := "listed"
	defer func() {
		metrics.RecordResolution("codes_for_serial", outcome, time.Since(start).Seconds())
	}()

	serial, err := effectivity.ParseSerial(serialNumber)
	if err != nil {
		outcome = "invalid"
		result.Warning = fmt.Sprintf(warnInvalidSerial, serialNumber)
		return result
	}

	rev, err := r.effectivity.GetCurrentRevision(ctx)
	if err != nil {
		outcome = "unresolved"
		result.Warning = warnCodesStore
		if httperror.IsHTTPError(err) && httperror.GetStatusCode(err) == http.StatusNotFound {
			result.Warning = warnNoRevision
		} else {
			outcome = "error"
			r.logger.WithContext(ctx).WithError(err).Error("Failed to load current effectivity revision")
		}
		return result
	}
	result.Revision = rev.Revision

	codes, err := r.effectivity.CodesForSerial(ctx, rev.ID, serial)
	if err != nil {
		outcome = "error"
		r.logger.WithContext(ctx).WithError(err).Error("Failed to load codes for serial")
		result.Warning = warnCodesStore
		return result
	}

	for _, c := range codes {
		if c.IsDeleted {
			continue
		}
		result.Codes = append(result.Codes, models.SerialCode{
			Code:                  c.Code,
			Description:           c.Description,
			IsConditional:         c.IsConditional,
			ConditionalPartNumber: c.ConditionalPartNumber,
		})
	}

	return result
}

func normalizeParts(partNumbers []string) []string {
	seen := make(map[string]bool, len(partNumbers))
	out := make([]string, 0, len(partNumbers))
	for _, pn := range partNumbers {
		pn = strings.TrimSpace(pn)
		if pn == "" || seen[strings.ToUpper(pn)] {
			continue
		}
		seen[strings.ToUpper(pn)] = true
		out = append(out, pn)
	}
	return out
}
