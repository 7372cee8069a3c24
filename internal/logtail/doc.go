// Package logtail reads the tail of the stockroom log file.
//
// The application logs through slog's text handler into a file because the
// dashboard owns the terminal. Read returns the last N entries at or above a
// level using a ring buffer, so memory stays proportional to N rather than
// the file size. Parse splits a line into time, level, message and the
// remaining attributes; lines that are not slog output (a panic trace, for
// example) are returned whole as an info-level message.
//
//	entries, err := logtail.Read(cfg.LogFile, 200, slog.LevelWarn)
//	if err != nil {
//		return err
//	}
//	for _, e := range entries {
//		fmt.Println(e.Level, e.Message)
//	}
package logtail
