// Copyright 2025.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ui

import (
	"context"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"go.uber.org/zap"

	"github.com/boosh-ssh/boosh/internal/core/domain"
	"github.com/boosh-ssh/boosh/internal/core/services"
)

const AppName = "boosh"

// InstanceService is what the picker needs from the connect pipeline.
type InstanceService interface {
	ListCached() ([]domain.Instance, error)
	Plan(ctx context.Context, id string, port int, opts services.ResolveOptions) (services.Resolution, error)
}

// SessionLauncher renders plans and runs interactive sessions.
type SessionLauncher interface {
	CommandLine(plan domain.ConnectionPlan) ([]string, error)
	SessionCommandLine(proxy, id string) []string
	OpenSession(ctx context.Context, proxy, id string) error
}

type tui struct {
	logger   *zap.SugaredLogger
	service  InstanceService
	launcher SessionLauncher
	// proxy is the program ssh runs as ProxyCommand.
	proxy   string
	version string

	app           *tview.Application
	root          *tview.Flex
	left          *tview.Flex
	hintBar       *tview.TextView
	searchBar     *tview.InputField
	instanceList  *InstanceList
	details       *InstanceDetails
	statusBar     *tview.TextView
	searchVisible bool
}

func NewTUI(logger *zap.SugaredLogger, service InstanceService, launcher SessionLauncher, proxy, version string) *tui {
	return &tui{
		logger:   logger,
		service:  service,
		launcher: launcher,
		proxy:    proxy,
		version:  version,
	}
}

// Run shows the picker until the user quits.
func (t *tui) Run() error {
	t.build()
	t.refreshInstanceList()
	t.logger.Infow("picker started", "version", t.version)
	return t.app.SetRoot(t.root, true).EnableMouse(true).Run()
}

func (t *tui) build() {
	t.app = tview.NewApplication()

	t.hintBar = tview.NewTextView().
		SetDynamicColors(true).
		SetText("[#8A8A8A]Enter connect  c copy  / search  r reload  ? help  q quit[-]")

	t.searchBar = tview.NewInputField().
		SetLabel(" / ").
		SetFieldBackgroundColor(tcell.ColorDefault).
		SetChangedFunc(t.handleSearchInput).
		SetDoneFunc(func(key tcell.Key) {
			if key == tcell.KeyEscape {
				t.searchBar.SetText("")
				t.refreshInstanceList()
			}
			t.hideSearchBar()
		})
	t.searchBar.SetBorder(true)

	t.instanceList = NewInstanceList().OnSelectionChange(t.handleInstanceSelectionChange)
	t.details = NewInstanceDetails()

	t.statusBar = tview.NewTextView().SetDynamicColors(true).SetText(DefaultStatusText())

	t.left = tview.NewFlex().SetDirection(tview.FlexRow)
	t.left.AddItem(t.hintBar, 1, 0, false)
	t.left.AddItem(t.instanceList, 0, 1, true)

	body := tview.NewFlex().
		AddItem(t.left, 0, 3, true).
		AddItem(t.details, 0, 2, false)

	t.root = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(body, 0, 1, true).
		AddItem(t.statusBar, 1, 0, false)

	t.app.SetInputCapture(t.handleGlobalKeys)
}

func DefaultStatusText() string {
	return "[#8A8A8A]" + AppName + " - cached instances[-]"
}
