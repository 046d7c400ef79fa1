// Copyright 2025 UMH Systems GmbH
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

package sentry

import (
	"bytes"
	"fmt"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/DataDog/gostackparse"
	"github.com/getsentry/sentry-go"
)

// captureGoroutinesAsThreads dumps every goroutine's stack and converts the
// dump into Sentry threads. The raw dump is returned alongside for logging.
func captureGoroutinesAsThreads() ([]sentry.Thread, []byte) {
	stack := entireStack()

	goroutines, err := gostackparse.Parse(bytes.NewReader(stack))
	if err != nil {
		fmt.Printf("Error parsing goroutines: %v\n", err)

		return nil, []byte("")
	}

	threads := make([]sentry.Thread, 0, len(goroutines))
	for _, g := range goroutines {
		threads = append(threads, goroutineToThread(g))
	}

	return threads, stack
}

// entireStack grows the buffer until runtime.Stack fits all goroutines.
func entireStack() []byte {
	buf := make([]byte, 1024)
	for {
		n := runtime.Stack(buf, true)
		if n < len(buf) {
			return buf[:n]
		}

		buf = make([]byte, 2*len(buf))
	}
}

func goroutineToThread(g *gostackparse.Goroutine) sentry.Thread {
	return sentry.Thread{
		ID:         strconv.Itoa(g.ID),
		Name:       fmt.Sprintf("Goroutine %d", g.ID),
		Stacktrace: &sentry.Stacktrace{Frames: toSentryFrames(g.Stack)},
	}
}

func toSentryFrames(stack []*gostackparse.Frame) []sentry.Frame {
	frames := make([]sentry.Frame, 0, len(stack))
	for _, f := range stack {
		frames = append(frames, sentry.Frame{
			Function: f.Func,
			Filename: filepath.Base(f.File),
			Lineno:   f.Line,
			AbsPath:  f.File,
		})
	}

	return frames
}
