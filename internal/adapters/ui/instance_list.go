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
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/boosh-ssh/boosh/internal/core/domain"
)

type InstanceList struct {
	*tview.List
	instances         []domain.Instance
	onSelectionChange func(domain.Instance)
}

func NewInstanceList() *InstanceList {
	list := &InstanceList{List: tview.NewList()}
	list.build()
	return list
}

func (il *InstanceList) build() {
	il.List.ShowSecondaryText(false)
	il.List.SetHighlightFullLine(true).
		SetSelectedBackgroundColor(tcell.Color24).
		SetBorder(true).
		SetTitle("Instances").
		SetBorderColor(tcell.Color238).
		SetTitleColor(tcell.Color250)

	il.List.SetChangedFunc(func(index int, _ string, _ string, _ rune) {
		if index >= 0 && index < len(il.instances) && il.onSelectionChange != nil {
			il.onSelectionChange(il.instances[index])
		}
	})
}

func (il *InstanceList) UpdateInstances(instances []domain.Instance) {
	il.instances = instances
	il.List.Clear()
	for _, inst := range instances {
		il.List.AddItem(formatInstanceLine(inst), "", 0, nil)
	}
	if len(instances) > 0 {
		il.List.SetCurrentItem(0)
		if il.onSelectionChange != nil {
			il.onSelectionChange(instances[0])
		}
	}
}

func (il *InstanceList) GetSelectedInstance() (domain.Instance, bool) {
	idx := il.List.GetCurrentItem()
	if idx >= 0 && idx < len(il.instances) {
		return il.instances[idx], true
	}
	return domain.Instance{}, false
}

func (il *InstanceList) OnSelectionChange(fn func(domain.Instance)) *InstanceList {
	il.onSelectionChange = fn
	return il
}
