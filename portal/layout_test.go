package portal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shikkhaloy/shikkhaloy/core/i18n"
	"github.com/shikkhaloy/shikkhaloy/core/user"
)

func TestLayout(t *testing.T) {
	var tabs []Tab
	var langs []i18n.Language
	var logouts int
	l := NewLayout(LayoutProps{
		ActiveTab:        TabStudents,
		Language:         i18n.EN,
		User:             &user.Profile{Name: "karim"},
		OnTabChange:      func(tab Tab) { tabs = append(tabs, tab) },
		OnLanguageChange: func(lang i18n.Language) { langs = append(langs, lang) },
		OnLogout:         func(context.Context) { logouts++ },
	})

	assert.Equal(t, "Amar Shikkhaloy", l.Title())
	assert.Equal(t, "K", l.Avatar())
	assert.Equal(t, []NavItem{
		{Tab: TabDashboard, Label: "Dashboard"},
		{Tab: TabStudents, Label: "Students", Active: true},
		{Tab: TabAttendance, Label: "Attendance"},
		{Tab: TabResults, Label: "Results"},
	}, l.Nav())

	l.ToggleMenu()
	assert.True(t, l.MenuOpen())
	l.SelectTab(TabResults)
	assert.False(t, l.MenuOpen())
	assert.Equal(t, []Tab{TabResults}, tabs)

	l.ToggleLanguage()
	assert.Equal(t, []i18n.Language{i18n.BN}, langs)

	l.Logout(context.Background())
	assert.Equal(t, 1, logouts)
}

func TestLayout_NoCallbacks(t *testing.T) {
	l := NewLayout(LayoutProps{ActiveTab: TabDashboard, Language: i18n.BN})
	assert.Empty(t, l.Avatar())
	assert.NotPanics(t, func() {
		l.SelectTab(TabStudents)
		l.ToggleLanguage()
		l.Logout(context.Background())
	})
	assert.Equal(t, i18n.T(i18n.BN).Dashboard, l.Nav()[0].Label)
}

func TestApp_Layout(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	remote.signIn(remote.addUser("রহিম", "01711111111", "rahim@test.bd"))
	app := newTestApp(t, remote, i18n.BN)
	require.NoError(t, app.Start(ctx))

	l := app.Layout()
	assert.Equal(t, "র", l.Avatar())
	l.SelectTab(TabAttendance)
	assert.Equal(t, TabAttendance, app.Tab())
	l.ToggleLanguage()
	assert.Equal(t, i18n.EN, app.Language())

	l.Logout(ctx)
	assert.Equal(t, StateUnauthenticated, app.State())
	assert.Equal(t, 1, remote.count("SignOut"))
}
