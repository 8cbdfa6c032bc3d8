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
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	"github.com/gdamore/tcell/v2"
	"github.com/kballard/go-shellquote"
	"github.com/rivo/tview"

	"github.com/boosh-ssh/boosh/internal/core/domain"
	"github.com/boosh-ssh/boosh/internal/core/services"
)

// =============================================================================
// Event Handlers (handle user input/events)
// =============================================================================

func (t *tui) handleGlobalKeys(event *tcell.EventKey) *tcell.EventKey {
	// Don't handle global keys when search has focus
	if t.app.GetFocus() == t.searchBar {
		return event
	}

	switch event.Rune() {
	case 'q':
		t.handleQuit()
		return nil
	case '/':
		t.handleSearchToggle()
		return nil
	case 'c':
		t.handleCopyCommand()
		return nil
	case 'r':
		t.refreshInstanceList()
		t.showStatusTemp("Cache reloaded")
		return nil
	case '?':
		t.handleHelpShow()
		return nil
	}

	if event.Key() == tcell.KeyEnter {
		t.handleInstanceConnect()
		return nil
	}

	return event
}

func (t *tui) handleQuit() {
	t.app.Stop()
}

func (t *tui) handleCopyCommand() {
	if inst, ok := t.instanceList.GetSelectedInstance(); ok {
		cmd := shellquote.Join(t.launcher.SessionCommandLine(t.proxy, inst.ID)...)
		if err := clipboard.WriteAll(cmd); err == nil {
			t.showStatusTemp("Copied: " + cmd)
		} else {
			t.logger.Warnw("clipboard write failed", "error", err)
			t.showStatusTemp("Failed to copy to clipboard")
		}
	}
}

func (t *tui) handleSearchInput(query string) {
	t.refreshInstanceListWith(query)
}

func (t *tui) handleSearchToggle() {
	t.showSearchBar()
}

func (t *tui) handleInstanceConnect() {
	if inst, ok := t.instanceList.GetSelectedInstance(); ok {
		t.showConnectModal(inst)
	}
}

// handleInstanceSelectionChange plans against the cached record only; the
// planner never reaches the directory for a cached id.
func (t *tui) handleInstanceSelectionChange(inst domain.Instance) {
	res, err := t.service.Plan(context.Background(), inst.ID, DefaultPort, services.ResolveOptions{})
	if err != nil {
		t.details.UpdateInstance(inst, nil, nil, err)
		return
	}
	argv, err := t.launcher.CommandLine(res.Plan)
	if err != nil {
		t.details.UpdateInstance(inst, &res, nil, err)
		return
	}
	t.details.UpdateInstance(inst, &res, argv, nil)
}

func (t *tui) handleHelpShow() {
	t.showHelpModal()
}

func (t *tui) handleModalClose() {
	t.returnToMain()
}

// =============================================================================
// UI Display Functions (show UI elements/modals)
// =============================================================================

func (t *tui) showSearchBar() {
	t.left.Clear()
	t.left.AddItem(t.searchBar, 3, 0, true)
	t.left.AddItem(t.instanceList, 0, 1, false)
	t.app.SetFocus(t.searchBar)
	t.searchVisible = true
}

func (t *tui) showConnectModal(inst domain.Instance) {
	msg := fmt.Sprintf("Connect to %s (%s, %s)?", inst.ID, inst.ProfileName, inst.Region)

	modal := tview.NewModal().
		SetText(msg).
		AddButtons([]string{"Confirm", "Cancel"}).
		SetDoneFunc(func(buttonIndex int, buttonLabel string) {
			if buttonIndex == 0 {
				var err error
				// Suspend the TUI while the session owns the terminal.
				t.app.Suspend(func() {
					err = t.launcher.OpenSession(context.Background(), t.proxy, inst.ID)
				})
				if err != nil {
					t.logger.Errorw("picker connection failed", "instance_id", inst.ID, "error", err)
					t.showStatusTemp(fmt.Sprintf("Connection failed: %v", err))
				}
			}
			t.handleModalClose()
		})

	t.app.SetRoot(modal, true)
}

func (t *tui) showHelpModal() {
	text := "Keyboard shortcuts:\n\n" +
		"  ↑/↓            Navigate\n" +
		"  Enter          Connect\n" +
		"  c              Copy ssh command\n" +
		"  r              Reload cache\n" +
		"  /              Focus search\n" +
		"  q              Quit\n" +
		"  ?              Help\n"

	modal := tview.NewModal().
		SetText(text).
		AddButtons([]string{"Close"}).
		SetDoneFunc(func(buttonIndex int, buttonLabel string) {
			t.handleModalClose()
		})

	t.app.SetRoot(modal, true)
}

// =============================================================================
// UI State Management (hide UI elements)
// =============================================================================

func (t *tui) hideSearchBar() {
	t.left.Clear()
	t.left.AddItem(t.hintBar, 1, 0, false)
	t.left.AddItem(t.instanceList, 0, 1, true)
	t.app.SetFocus(t.instanceList)
	t.searchVisible = false
}

// =============================================================================
// Internal Operations (perform actual work)
// =============================================================================

func (t *tui) refreshInstanceList() {
	query := ""
	if t.searchVisible {
		query = t.searchBar.GetText()
	}
	t.refreshInstanceListWith(query)
}

func (t *tui) refreshInstanceListWith(query string) {
	instances, err := t.service.ListCached()
	if err != nil {
		t.showStatusTemp(fmt.Sprintf("Failed to read cache: %v", err))
		return
	}
	filtered := filterInstances(instances, query)
	t.instanceList.UpdateInstances(filtered)
	if len(filtered) == 0 {
		t.details.ShowEmpty()
	}
}

func (t *tui) returnToMain() {
	t.app.SetRoot(t.root, true)
}

// showStatusTemp displays a temporary message in the status bar and then restores the default text.
func (t *tui) showStatusTemp(msg string) {
	if t.statusBar == nil {
		return
	}
	t.statusBar.SetText("[#A0FFA0]" + tview.Escape(msg) + "[-]")
	time.AfterFunc(2*time.Second, func() {
		if t.app != nil {
			t.app.QueueUpdateDraw(func() {
				if t.statusBar != nil {
					t.statusBar.SetText(DefaultStatusText())
				}
			})
		}
	})
}
