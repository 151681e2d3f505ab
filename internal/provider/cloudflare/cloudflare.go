package cloudflare

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cloudflare/cloudflare-go"
	"github.com/evanofslack/cfdns/internal/metrics"
	"github.com/evanofslack/cfdns/internal/provider"
)

const (
	requestTimeout = 30 * time.Second
	zoneStatus     = "active"
)

type CloudflareProvider struct {
	client  *cloudflare.API
	metrics *metrics.Metrics
}

// New returns a provider authenticated with an API token. Extra options are
// passed to the cloudflare client (tests point BaseURL at a local server).
func New(token string, metrics *metrics.Metrics, opts ...cloudflare.Option) (*CloudflareProvider, error) {
	if token == "" {
		return nil, fmt.Errorf("cloudflare api token empty")
	}

	opts = append([]cloudflare.Option{
		cloudflare.HTTPClient(&http.Client{Timeout: requestTimeout}),
	}, opts...)

	client, err := cloudflare.NewWithAPIToken(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Cloudflare client: %w", err)
	}

	return &CloudflareProvider{
		client:  client,
		metrics: metrics,
	}, nil
}

// Factory adapts New to provider.Factory.
func Factory(metrics *metrics.Metrics, opts ...cloudflare.Option) provider.Factory {
	return func(token string) (provider.Provider, error) {
		return New(token, metrics, opts...)
	}
}

func (p *CloudflareProvider) FindZoneByName(ctx context.Context, name string) (*provider.Zone, error) {
	name = strings.ToLower(strings.TrimSuffix(name, "."))
	slog.Debug("Looking up zone", "zone", name)

	resp, err := p.client.ListZonesContext(ctx, cloudflare.WithZoneFilters(name, "", zoneStatus))
	if err != nil {
		p.metrics.IncDNSRequest("read", name, false)
		return nil, fmt.Errorf("failed to list zones: %w", translateError(err))
	}
	p.metrics.IncDNSRequest("read", name, true)

	for _, z := range resp.Result {
		if strings.EqualFold(z.Name, name) {
			return &provider.Zone{ID: z.ID, Name: z.Name}, nil
		}
	}
	return nil, nil
}

func (p *CloudflareProvider) FindRecord(ctx context.Context, zoneID, name string, recordType provider.RecordType) (*provider.Record, error) {
	return p.findRecord(ctx, zoneID, cloudflare.ListDNSRecordsParams{
		Name: name,
		Type: recordType.String(),
	})
}

func (p *CloudflareProvider) FindRecordByName(ctx context.Context, zoneID, name string) (*provider.Record, error) {
	return p.findRecord(ctx, zoneID, cloudflare.ListDNSRecordsParams{Name: name})
}

func (p *CloudflareProvider) findRecord(ctx context.Context, zoneID string, params cloudflare.ListDNSRecordsParams) (*provider.Record, error) {
	slog.Debug("Getting DNS record", "zone", zoneID, "name", params.Name, "type", params.Type)
	start := time.Now()

	params.ResultInfo = cloudflare.ResultInfo{Page: 1, PerPage: 100}
	records, _, err := p.client.ListDNSRecords(ctx, cloudflare.ZoneIdentifier(zoneID), params)
	if err != nil {
		p.metrics.IncDNSRequest("read", zoneID, false)
		return nil, fmt.Errorf("failed to list DNS records: %w", translateError(err))
	}
	p.metrics.IncDNSRequest("read", zoneID, true)
	slog.Debug("Retrieved DNS records", "zone", zoneID, "name", params.Name, "count", len(records), "duration", time.Since(start))

	if len(records) == 0 {
		return nil, nil
	}
	// Only one record per name and type is expected; keep the last like the API listing order.
	record := fromCloudflare(records[len(records)-1], zoneID)
	return &record, nil
}

func (p *CloudflareProvider) CreateRecord(ctx context.Context, zoneID string, record provider.Record) (provider.Record, error) {
	if record.Resolved() {
		return provider.Record{}, fmt.Errorf("create %s: %w", record.Name, provider.ErrHasID)
	}
	slog.Info("Creating DNS record", "zone", zoneID, "name", record.Name, "type", record.Type, "data", record.Content)
	start := time.Now()

	proxied := record.Proxied
	params := cloudflare.CreateDNSRecordParams{
		Type:    record.Type.String(),
		Name:    record.Name,
		Content: record.Content.String(),
		Proxied: &proxied,
		TTL:     record.TTL.Seconds(),
	}

	created, err := p.client.CreateDNSRecord(ctx, cloudflare.ZoneIdentifier(zoneID), params)
	if err != nil {
		p.metrics.IncDNSRequest("create", zoneID, false)
		return provider.Record{}, fmt.Errorf("failed to create DNS record: %w", translateError(err))
	}

	p.metrics.IncDNSRequest("create", zoneID, true)
	slog.Debug("Created DNS record", "zone", zoneID, "name", record.Name, "type", record.Type, "id", created.ID, "duration", time.Since(start))
	return fromCloudflare(created, zoneID), nil
}

func (p *CloudflareProvider) UpdateRecord(ctx context.Context, zoneID string, record provider.Record) (provider.Record, error) {
	if !record.Resolved() {
		return provider.Record{}, fmt.Errorf("update %s: %w", record.Name, provider.ErrMissingID)
	}
	slog.Info("Updating DNS record", "zone", zoneID, "name", record.Name, "type", record.Type, "data", record.Content)
	start := time.Now()

	proxied := record.Proxied
	params := cloudflare.UpdateDNSRecordParams{
		ID:      record.ID,
		Type:    record.Type.String(),
		Name:    record.Name,
		Content: record.Content.String(),
		Proxied: &proxied,
		TTL:     record.TTL.Seconds(),
	}

	updated, err := p.client.UpdateDNSRecord(ctx, cloudflare.ZoneIdentifier(zoneID), params)
	if err != nil {
		p.metrics.IncDNSRequest("update", zoneID, false)
		return provider.Record{}, fmt.Errorf("failed to update DNS record: %w", translateError(err))
	}

	p.metrics.IncDNSRequest("update", zoneID, true)
	slog.Debug("Updated DNS record", "zone", zoneID, "name", record.Name, "type", record.Type, "duration", time.Since(start))
	return fromCloudflare(updated, zoneID), nil
}

func fromCloudflare(r cloudflare.DNSRecord, zoneID string) provider.Record {
	record := provider.Record{
		ID:      r.ID,
		ZoneID:  r.ZoneID,
		Name:    r.Name,
		Type:    provider.ParseRecordType(r.Type),
		Content: provider.ParseContent(r.Content),
		TTL:     provider.TTLFromSeconds(r.TTL),
	}
	if record.ZoneID == "" {
		record.ZoneID = zoneID
	}
	if r.Proxied != nil {
		record.Proxied = *r.Proxied
	}
	return record
}

// codedError is implemented by the typed errors cloudflare-go returns for
// non-2xx responses (RequestError, NotFoundError, ServiceError, ...).
type codedError interface {
	ErrorCodes() []int
	ErrorMessages() []string
}

// translateError turns provider rejections into *provider.APIError and
// leaves transport failures untouched.
func translateError(err error) error {
	var (
		codes    []int
		messages []string
		status   int
	)

	var cfErr *cloudflare.Error
	var coded codedError
	switch {
	case errors.As(err, &cfErr):
		codes, messages, status = cfErr.ErrorCodes, cfErr.ErrorMessages, cfErr.StatusCode
	case errors.As(err, &coded):
		codes, messages = coded.ErrorCodes(), coded.ErrorMessages()
	default:
		return err
	}

	apiErr := &provider.APIError{StatusCode: status, Message: err.Error(), Err: err}
	if len(codes) > 0 {
		apiErr.Code = codes[len(codes)-1]
	}
	if len(messages) > 0 {
		apiErr.Message = messages[len(messages)-1]
	}
	return apiErr
}
