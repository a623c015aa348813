package ui

import "asciimation/internal/progress"

type updateMsg struct {
	U progress.Update
}

type logMsg struct {
	L progress.Log
}

type resultMsg struct {
	R progress.Result
}

// jobDoneMsg is sent once the job function has returned.
type jobDoneMsg struct {
	Err error
}
