package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/Veraticus/dsm-insight/internal/model"
	"github.com/Veraticus/dsm-insight/internal/report"
	"github.com/Veraticus/dsm-insight/internal/storage"
)

// Formatter renders report values as styled terminal text.
type Formatter struct {
	w io.Writer
}

// NewFormatter creates a Formatter writing to w.
func NewFormatter(w io.Writer) *Formatter {
	return &Formatter{w: w}
}

func (f *Formatter) print(parts ...string) error {
	_, err := fmt.Fprintln(f.w, strings.Join(parts, "\n"))
	return err
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func pct(v float64) string {
	return num(v) + "%"
}

func card(label, value string) string {
	return CardStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		SubtleStyle.Render(label),
		BoldStyle.Render(value),
	))
}

// KPICards renders the five headline values side by side.
func KPICards(k model.KPISet) string {
	return lipgloss.JoinHorizontal(lipgloss.Top,
		card("Generation (MU)", num(k.GenerationMU)),
		card("Revenue (Cr)", num(k.RevenueCr)),
		card("DSM Penalty (Cr)", num(k.PenaltyCr)),
		card("Revenue Loss", pct(k.LossPct)),
		card("Efficiency", num(k.EfficiencyScore)),
	)
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(SubtleStyle).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return TableHeaderStyle
			}
			return TableCellStyle
		})
}

// KPIs renders a titled KPI card row.
func (f *Formatter) KPIs(title string, k model.KPISet) error {
	return f.print(FormatTitle(title), KPICards(k))
}

// Portfolio renders portfolio totals.
func (f *Formatter) Portfolio(p report.Portfolio) error {
	span := "no data"
	if p.Records > 0 {
		span = p.FirstMonth + " to " + p.LastMonth
	}
	return f.print(
		FormatTitle("Portfolio"),
		SubtitleStyle.Render(fmt.Sprintf("%d records · %d sites · %d states · %s", p.Records, p.Sites, p.States, span)),
		KPICards(p.KPIs),
	)
}

// Summary renders grouped summaries as a table with a risk column when present.
func (f *Formatter) Summary(key model.GroupKey, rows []model.GroupSummary) error {
	t := newTable(strings.ToUpper(string(key)), "GEN (MU)", "REVENUE (CR)", "PENALTY (CR)", "LOSS", "RISK")
	for i := range rows {
		r := &rows[i]
		name := r.Key
		if r.Label != "" && r.Label != r.Key {
			name = r.Key + " (" + r.Label + ")"
		}
		risk := "-"
		switch {
		case r.NoData:
			risk = SubtleStyle.Render("no data")
		case r.RiskLevel != "":
			risk = RiskStyle(r.RiskLevel).Render(string(r.RiskLevel))
		}
		t.Row(name, num(r.GenerationMU), num(r.RevenueCr), num(r.PenaltyCr), pct(r.LossPct), risk)
	}

	high, low := report.CountRisk(rows)
	return f.print(
		FormatTitle("Summary by "+string(key)),
		t.String(),
		SubtleStyle.Render(fmt.Sprintf("%d high-risk · %d low-risk", high, low)),
	)
}

// Trend renders a period table with the line status of each point.
func (f *Formatter) Trend(points []model.TrendPoint) error {
	if len(points) == 0 {
		return f.print(FormatInfo("No data for the selected filters"))
	}
	t := newTable("PERIOD", "GEN (MU)", "REVENUE (CR)", "PENALTY (CR)", "LOSS", "STATUS")
	for _, p := range points {
		t.Row(p.Label, num(p.GenerationMU), num(p.RevenueCr), num(p.PenaltyCr), pct(p.LossPct),
			LineStyle(p.Line).Render(string(p.Line)))
	}
	return f.print(FormatTitle("Trend"), t.String())
}

// StateDrillDown renders one state's KPIs, its worst sites and technology mix.
func (f *Formatter) StateDrillDown(d report.StateDrillDown) error {
	title := "State " + d.StateCode
	if d.Label != "" && d.Label != d.StateCode {
		title += " (" + d.Label + ")"
	}

	sites := newTable("SITE", "PENALTY (CR)")
	for _, s := range d.TopSitesByPenalty {
		sites.Row(s.Site, num(s.PenaltyCr))
	}
	tech := newTable("TECHNOLOGY", "GEN (MU)")
	for _, t := range d.TechnologyBreakdown {
		tech.Row(t.Technology, num(t.GenerationMU))
	}

	return f.print(
		FormatTitle(title),
		KPICards(d.KPIs),
		BoldStyle.Render("Top sites by penalty"),
		sites.String(),
		BoldStyle.Render("Generation by technology"),
		tech.String(),
	)
}

// Comparison renders per-site summaries and radar scores in selection order.
func (f *Formatter) Comparison(c report.Comparison) error {
	t := newTable("SITE", "GEN (MU)", "REVENUE (CR)", "PENALTY (CR)", "LOSS", "GEN SCORE", "REV SCORE", "LOW-LOSS", "OVERALL")
	for i := range c.Sites {
		s := &c.Sites[i]
		if s.Summary.NoData {
			t.Row(s.Site, SubtleStyle.Render("no data"), "-", "-", "-", "-", "-", "-", "-")
			continue
		}
		t.Row(s.Site,
			num(s.Summary.GenerationMU), num(s.Summary.RevenueCr), num(s.Summary.PenaltyCr), pct(s.Summary.LossPct),
			num(s.Radar.Generation), num(s.Radar.Revenue), num(s.Radar.LowLoss), num(s.Radar.Overall))
	}
	return f.print(FormatTitle("Site comparison"), KPICards(c.KPIs), t.String())
}

// Profile renders one site's attributes and KPIs.
func (f *Formatter) Profile(p report.SiteProfile) error {
	t := newTable("ATTRIBUTE", "VALUE")
	t.Row("State", strings.TrimSpace(p.StateCode+" "+p.StateName))
	t.Row("Technology", p.Technology)
	t.Row("Connectivity", p.Connectivity)
	t.Row("Category", p.PowerSaleCategory)
	t.Row("QCA", p.QCA)
	t.Row("Capacity (MW)", num(p.PlantCapacityMW))
	t.Row("PPA rate", num(p.PPARate))
	t.Row("Data points", strconv.Itoa(p.DataPoints))
	return f.print(FormatTitle("Site "+p.Site), t.String(), KPICards(p.KPIs))
}

// IngestStats renders the outcome of an import.
func (f *Formatter) IngestStats(s *storage.IngestStats, dropped, duplicates int) error {
	lines := []string{
		FormatSuccess(fmt.Sprintf("Imported %s (batch %s)", s.Source, s.BatchID)),
		fmt.Sprintf("  inserted %d · updated %d · skipped %d of %d", s.Inserted, s.Updated, s.Skipped, s.Total),
	}
	if dropped > 0 {
		lines = append(lines, FormatWarning(fmt.Sprintf("%d rows dropped for missing site or month", dropped)))
	}
	if duplicates > 0 {
		lines = append(lines, FormatInfo(fmt.Sprintf("%d duplicate site-month rows collapsed to the last occurrence", duplicates)))
	}
	return f.print(lines...)
}

// SiteMappings renders the stored site reference attributes.
func (f *Formatter) SiteMappings(mappings []model.SiteMapping) error {
	if len(mappings) == 0 {
		return f.print(FormatInfo("No site mappings loaded"))
	}
	t := newTable("SITE", "STATE", "TECHNOLOGY", "CONNECTIVITY", "CATEGORY", "QCA", "MW")
	for i := range mappings {
		m := &mappings[i]
		t.Row(m.Site, strings.TrimSpace(m.StateCode+" "+m.StateName), m.Technology, m.Connectivity,
			m.PowerSaleCategory, m.QCA, num(m.PlantCapacityMW))
	}
	return f.print(FormatTitle("Site mappings"), t.String())
}

// IngestionLogs renders the import audit trail.
func (f *Formatter) IngestionLogs(logs []storage.IngestionLog) error {
	if len(logs) == 0 {
		return f.print(FormatInfo("No imports recorded yet"))
	}
	t := newTable("STARTED", "SOURCE", "STATUS", "INSERTED", "UPDATED", "SKIPPED", "ROWS", "BATCH")
	for i := range logs {
		l := &logs[i]
		status := SuccessStyle.Render(l.Status)
		if l.Status != storage.IngestStatusSuccess {
			status = ErrorStyle.Render(l.Status)
		}
		t.Row(l.StartedAt.Local().Format("2006-01-02 15:04"), l.Source, status,
			strconv.Itoa(l.Inserted), strconv.Itoa(l.Updated), strconv.Itoa(l.Skipped),
			strconv.Itoa(l.RowsTotal), l.BatchID)
	}
	return f.print(FormatTitle("Import history"), t.String())
}

// Checkpoints renders the checkpoint list.
func (f *Formatter) Checkpoints(list []storage.CheckpointInfo) error {
	if len(list) == 0 {
		return f.print(FormatInfo("No checkpoints found"))
	}
	t := newTable("ID", "CREATED", "RECORDS", "MAPPINGS", "SIZE", "DESCRIPTION")
	for i := range list {
		cp := &list[i]
		id := cp.ID
		if cp.IsAuto {
			id += SubtleStyle.Render(" (auto)")
		}
		t.Row(id, cp.CreatedAt.Local().Format("2006-01-02 15:04"), strconv.Itoa(cp.Records),
			strconv.Itoa(cp.Mappings), humanSize(cp.FileSize), cp.Description)
	}
	return f.print(FormatTitle(FolderIcon+" Checkpoints"), t.String())
}

func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
