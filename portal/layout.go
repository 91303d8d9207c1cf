package portal

import (
	"context"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/shikkhaloy/shikkhaloy/core/i18n"
	"github.com/shikkhaloy/shikkhaloy/core/user"
)

type Tab string

const (
	TabDashboard  Tab = "dashboard"
	TabStudents   Tab = "students"
	TabAttendance Tab = "attendance"
	TabResults    Tab = "results"
)

var Tabs = []Tab{TabDashboard, TabStudents, TabAttendance, TabResults}

func (t Tab) IsValid() bool {
	for _, tab := range Tabs {
		if t == tab {
			return true
		}
	}
	return false
}

func (t Tab) Label(lang i18n.Language) string {
	tr := i18n.T(lang)
	switch t {
	case TabDashboard:
		return tr.Dashboard
	case TabStudents:
		return tr.Students
	case TabAttendance:
		return tr.Attendance
	case TabResults:
		return tr.Results
	}
	return string(t)
}

type LayoutProps struct {
	ActiveTab        Tab
	Language         i18n.Language
	User             *user.Profile
	OnTabChange      func(tab Tab)
	OnLanguageChange func(lang i18n.Language)
	OnLogout         func(ctx context.Context)
}

type NavItem struct {
	Tab    Tab
	Label  string
	Active bool
}

// Layout is the navigation shell. Its only own state is the mobile menu; everything else is
// handed to the callbacks.
type Layout struct {
	props LayoutProps

	mu       sync.Mutex
	menuOpen bool
}

func NewLayout(props LayoutProps) *Layout {
	return &Layout{props: props}
}

func (l *Layout) Title() string {
	return i18n.T(l.props.Language).SchoolName
}

func (l *Layout) Nav() []NavItem {
	items := make([]NavItem, 0, len(Tabs))
	for _, tab := range Tabs {
		items = append(items, NavItem{Tab: tab, Label: tab.Label(l.props.Language), Active: tab == l.props.ActiveTab})
	}
	return items
}

// Avatar is the initial shown in the header, "" when signed out.
func (l *Layout) Avatar() string {
	if l.props.User == nil {
		return ""
	}
	name := strings.TrimSpace(l.props.User.Name)
	if name == "" {
		return ""
	}
	r, _ := utf8.DecodeRuneInString(name)
	return strings.ToUpper(string(r))
}

func (l *Layout) MenuOpen() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.menuOpen
}

func (l *Layout) ToggleMenu() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.menuOpen = !l.menuOpen
}

// SelectTab closes the mobile menu and reports the tab.
func (l *Layout) SelectTab(tab Tab) {
	l.mu.Lock()
	l.menuOpen = false
	l.mu.Unlock()
	if l.props.OnTabChange != nil {
		l.props.OnTabChange(tab)
	}
}

// ToggleLanguage reports the other language.
func (l *Layout) ToggleLanguage() {
	if l.props.OnLanguageChange != nil {
		l.props.OnLanguageChange(l.props.Language.Other())
	}
}

func (l *Layout) Logout(ctx context.Context) {
	if l.props.OnLogout != nil {
		l.props.OnLogout(ctx)
	}
}
