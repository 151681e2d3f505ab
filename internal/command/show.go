package command

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/evanofslack/cfdns/internal/metrics"
	"github.com/evanofslack/cfdns/internal/reconcile"
	"github.com/evanofslack/cfdns/internal/source"
)

func newShowCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show interface addresses and the sync status of every record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := a.load(ctx)
			if err != nil {
				return err
			}
			watchers, err := a.assemble(ctx, cfg, reconcile.Options{Metrics: metrics.New(false)})
			if err != nil {
				return err
			}

			statuses := make([]reconcile.UnitStatus, 0, len(watchers))
			for _, w := range watchers {
				statuses = append(statuses, w.Status(ctx))
			}
			return writeStatus(a.out, statuses)
		},
	}
}

func writeStatus(w io.Writer, statuses []reconcile.UnitStatus) error {
	p := &printer{w: w}
	if len(statuses) == 0 {
		p.line("No watchers configured!")
		return p.err
	}

	for i, s := range statuses {
		if i > 0 {
			p.line("")
		}
		p.line("[%s]", s.Interface)
		if addr, ok := s.Info.Address(source.IPv4); ok {
			p.field(8, "ipv4", strconv.Quote(addr.String()))
		}
		if addr, ok := s.Info.Address(source.IPv6); ok {
			p.field(8, "ipv6", strconv.Quote(addr.String()))
		}
		p.field(8, "interval", strconv.Itoa(int(s.Interval.Seconds())))
		p.field(8, "status", strconv.Quote(string(s.State)))

		for _, zone := range s.Zones {
			for _, r := range zone.Records {
				upstream := "N/A"
				if r.Found {
					upstream = r.Upstream.String()
				}
				p.line("")
				p.line("[[%s.zones.%q]]", s.Interface, zone.Name)
				p.field(9, "name", strconv.Quote(r.Name))
				p.field(9, "type", strconv.Quote(r.Type.String()))
				p.field(9, "local", strconv.Quote(r.Local.String()))
				p.field(9, "upstream", strconv.Quote(upstream))
				p.field(9, "proxied", strconv.FormatBool(r.Proxied))
				p.field(9, "ttl", r.TTL.String())
				p.field(9, "status", strconv.Quote(string(r.Status)))
				if r.Status == reconcile.StatusTypeMismatch {
					p.field(9, "found", strconv.Quote(r.UpstreamType.String()))
				}
				if r.Err != nil {
					p.field(9, "error", strconv.Quote(r.Err.Error()))
				}
			}
		}
	}
	return p.err
}

// printer keeps the first write error so callers check once.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) line(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format+"\n", args...)
}

func (p *printer) field(width int, key, value string) {
	p.line("%-*s = %s", width, key, value)
}
