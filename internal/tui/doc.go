// Package tui provides the terminal progress view for lessonforge generate.
//
// The view is read-only. It consumes executor events and renders overall
// progress, one row per task or chapter, and a short activity log. Users can
// only quit with 'q' or Ctrl+C.
//
// Usage:
//
//	events := orchestrator.NewEventEmitter(orchestrator.DefaultEventBuffer)
//	program, app := tui.NewProgressProgram(events.Events(), "Loops")
//	go func() {
//	    res, err := svc.GenerateLesson(ctx, req, nil)
//	    events.Close()
//	    program.Send(tui.DoneMsg{Result: res, Err: err})
//	}()
//	program.Run()
package tui
