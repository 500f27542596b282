// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package procscan

import (
	"errors"
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

func list() ([]Process, error) {
	snapshot, err := windows.CreateToolhelp32Snapshot(windows.TH32CS_SNAPPROCESS, 0)
	if err != nil {
		return nil, fmt.Errorf("taking process snapshot: %w", err)
	}
	defer windows.CloseHandle(snapshot)

	var entry windows.ProcessEntry32
	entry.Size = uint32(unsafe.Sizeof(entry))

	var processes []Process
	err = windows.Process32First(snapshot, &entry)
	for err == nil {
		processes = append(processes, Process{
			PID:   int(entry.ProcessID),
			Image: windows.UTF16ToString(entry.ExeFile[:]),
		})
		err = windows.Process32Next(snapshot, &entry)
	}
	if !errors.Is(err, windows.ERROR_NO_MORE_FILES) {
		return nil, fmt.Errorf("walking process snapshot: %w", err)
	}
	return processes, nil
}
