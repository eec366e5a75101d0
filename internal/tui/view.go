package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/jask/entitypages/internal/accounts"
	"github.com/jask/entitypages/internal/page"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Underline(true)
	focusStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("63")).Padding(0, 1)
	blurStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1)
	cursorStyle  = lipgloss.NewStyle().Reverse(true)
	dimStyle     = lipgloss.NewStyle().Faint(true)
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	modalStyle   = lipgloss.NewStyle().Border(lipgloss.DoubleBorder()).Padding(1, 2)
	lockedMarker = "(locked)"
)

// valueWidth caps detail values in cells.
const valueWidth = 40

func (a *App) View() string {
	title := titleStyle.Render("Accounts")
	info := a.page.Grid().Info()
	header := fmt.Sprintf("%s  %d of %d  page %d/%d  [%s]", title, min(info.Offset+1, info.Total), info.Total, info.Index+1, max(info.Pages, 1), a.page.State())
	if s := a.page.Adapter().Search(); s != "" {
		header += "  /" + ansi.Truncate(s, valueWidth, "…")
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top, a.renderList(), a.renderDetail())
	out := header + "\n" + body + "\n" + a.renderHelp()
	if a.status != "" {
		out += "\n" + a.status
	}
	if a.modal != modalNone {
		out += "\n" + a.renderModal()
	}
	return out
}

func (a *App) style(f focusArea) lipgloss.Style {
	if a.focus == f {
		return focusStyle
	}
	return blurStyle
}

// lockedWidth is the width of the trailing lock marker column.
const lockedWidth = 8

func (a *App) renderList() string {
	out := a.listView()
	if len(a.page.Grid().Rows) == 0 {
		out += "\n" + dimStyle.Render("no accounts")
	}
	return a.style(focusList).Render(out)
}

// listView renders the visible window through the list table.
func (a *App) listView() string {
	g := a.page.Grid()
	cols := make([]table.Column, 0, len(g.Columns)+1)
	width := 0
	for _, c := range g.Columns {
		cols = append(cols, table.Column{Title: c.Title, Width: c.Width})
		width += c.Width + 2
	}
	cols = append(cols, table.Column{Title: "", Width: lockedWidth})
	width += lockedWidth + 2

	rows := make([]table.Row, 0, len(g.Rows))
	for _, r := range g.Rows {
		row := make(table.Row, 0, len(cols))
		for _, c := range g.Columns {
			row = append(row, c.Value(r))
		}
		marker := ""
		if r.Locked {
			marker = lockedMarker
		}
		rows = append(rows, append(row, marker))
	}

	// rows and columns are replaced together, so reset the cursor first
	a.table.SetCursor(0)
	a.table.SetColumns(cols)
	a.table.SetRows(rows)
	a.table.SetWidth(width)
	a.table.SetHeight(max(len(rows), 1) + 1)
	if a.focus == focusList {
		a.table.Focus()
	} else {
		a.table.Blur()
	}
	if len(rows) > 0 {
		a.table.SetCursor(min(a.cursor, len(rows)-1))
	}
	return a.table.View()
}

func (a *App) renderDetail() string {
	cur := a.page.Current()
	if cur == nil {
		return blurStyle.Render(dimStyle.Render("nothing selected, [n] to create"))
	}
	var b strings.Builder
	i := 0
	for _, s := range []*page.FieldSection[accounts.Account]{a.sections.Details, a.sections.Balances} {
		b.WriteString(titleStyle.Render(s.Title) + "\n")
		for _, in := range s.Form().Inputs() {
			val := in.Value
			if a.editing && i == a.fieldCursor {
				val = a.input.View()
			} else if in.Field.Name == "opening" {
				val = a.openingLabel(in.Value)
			} else {
				val = ansi.Truncate(val, valueWidth, "…")
			}
			line := fmt.Sprintf("%-24s %s", in.Field.Label, val)
			if in.Err != "" {
				line += " " + errStyle.Render(in.Err)
			}
			if a.focus == focusDetail && i == a.fieldCursor && !a.editing {
				line = cursorStyle.Render(line)
			}
			b.WriteString(line + "\n")
			i++
		}
	}
	detail := a.style(focusDetail).Render(strings.TrimRight(b.String(), "\n"))
	return lipgloss.JoinVertical(lipgloss.Left, detail, a.renderAliases(cur))
}

func (a *App) openingLabel(v string) string {
	var cents int64
	if _, err := fmt.Sscan(v, &cents); err != nil {
		return v
	}
	return accounts.FormatCents(cents, a.currency)
}

func (a *App) renderAliases(cur *accounts.Account) string {
	p := a.sections.Aliases
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s (%d)", p.Title(), aliasCount(cur))) + "\n")
	if cur.ID == "" {
		b.WriteString(dimStyle.Render("save the account to add aliases"))
	}
	width := valueWidth
	if cols := p.Columns(); len(cols) > 0 {
		width = cols[0].Width
	}
	for i, al := range p.Rows() {
		line := ansi.Truncate(al.Pattern, width, "…")
		if a.focus == focusAliases && i == a.aliasCursor {
			line = cursorStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}
	return a.style(focusAliases).Render(strings.TrimRight(b.String(), "\n"))
}

func (a *App) renderHelp() string {
	var keys string
	switch a.focus {
	case focusDetail:
		keys = "[j/k] Field  [enter] Edit"
	case focusAliases:
		keys = "[a] Add  [e] Edit  [x] Remove"
	default:
		keys = "[j/k] Move  [pgup/pgdn] Page  [o] Sort"
	}
	return dimStyle.Render(keys + "  [n] New  [c] Clone  [ctrl+s] Save  [ctrl+d] Delete  [esc] Discard  [/] Search  [tab] Focus  [q] Quit")
}

func (a *App) renderModal() string {
	switch a.modal {
	case modalConfirm:
		return modalStyle.Render(titleStyle.Render(a.confirm.prompt) + "\n[y] Yes  [n] No")
	case modalAlias:
		return modalStyle.Render(titleStyle.Render(a.aliasForm.title) + "\nPattern: " + a.input.View() + "\n[enter] Save  [esc] Cancel")
	case modalClone:
		return modalStyle.Render(titleStyle.Render("Clone "+a.page.Current().Name) +
			fmt.Sprintf("\n[f] Fields %s\n[r] Aliases %s\n[enter] Clone  [esc] Cancel", check(a.clone.Fields), check(a.clone.Relations)))
	case modalSearch:
		return modalStyle.Render(titleStyle.Render("Search") + "\n" + a.search.View() + "\n[enter] Apply  [esc] Cancel")
	case modalNotice:
		n := a.notice
		body := titleStyle.Render(n.Title)
		if n.Message != "" {
			body += "\n" + n.Message
		}
		for _, fe := range n.Fields {
			body += "\n- " + fe.String()
		}
		if n.Retryable {
			body += "\nPress ctrl+s to try again."
		}
		return modalStyle.Render(body + "\n[enter] OK")
	}
	return ""
}

func check(on bool) string {
	if on {
		return "[x]"
	}
	return "[ ]"
}
