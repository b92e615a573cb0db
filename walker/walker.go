// Package walker drives an archival run: it scans each folder newest-first,
// hands every raw message to the assembler and applies the date-floor,
// duplicate and message-cap rules.
package walker

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/mdvault/mailmd/config"
	"github.com/mdvault/mailmd/model"
	"github.com/mdvault/mailmd/parse"
	"github.com/mdvault/mailmd/state"
	"github.com/mdvault/mailmd/stats"
)

// Session is the folder and message surface the walker traverses. Both the
// IMAP and the mbox backends satisfy it.
type Session interface {
	ListFolders() ([]string, error)
	SelectFolder(folder string) (int, error)
	FetchRaw(seq int) ([]byte, error)
	Logout() error
}

// Walker runs the scan. It is strictly single-threaded: one folder at a time,
// one message at a time, so state updates and event handling need no locking.
type Walker struct {
	cfg     config.Config
	asm     *parse.Assembler
	tracker state.Tracker
	emit    stats.Emit
	logger  *slog.Logger
}

func New(cfg config.Config, asm *parse.Assembler, tracker state.Tracker, emit stats.Emit, logger *slog.Logger) *Walker {
	return &Walker{
		cfg:     cfg,
		asm:     asm,
		tracker: tracker,
		emit:    emit,
		logger:  logger,
	}
}

// Run scans every configured folder and returns the accepted messages in scan
// order. A folder that fails to select is logged and skipped; single-message
// fetch errors never abort the folder.
func (w *Walker) Run(session Session) ([]model.Message, error) {
	if _, err := w.cfg.FloorDate(); err != nil {
		return nil, err
	}

	folders, err := w.folders(session)
	if err != nil {
		return nil, err
	}

	var archived []model.Message
	for _, folder := range folders {
		msgs, capped, err := w.walkFolder(session, folder, w.remaining(len(archived)))
		if err != nil {
			w.logger.Warn("folder skipped", "folder", folder, "err", err)
			continue
		}
		archived = append(archived, msgs...)
		if capped {
			w.logger.Info("message cap reached", "cap", w.cfg.MaxMessages)
			break
		}
	}

	return archived, nil
}

// folders resolves the folder list for this run: the configured folders, or
// every folder the session knows, minus exclusions.
func (w *Walker) folders(session Session) ([]string, error) {
	names := w.cfg.Folders
	if len(names) == 0 {
		all, err := session.ListFolders()
		if err != nil {
			return nil, err
		}
		names = all
	}

	out := make([]string, 0, len(names))
	for _, name := range names {
		if w.excluded(name) {
			w.logger.Debug("folder excluded", "folder", name)
			continue
		}
		out = append(out, name)
	}
	return out, nil
}

// excluded matches a folder against the exclusion list. Excluding a top-level
// folder also excludes everything below it.
func (w *Walker) excluded(folder string) bool {
	name := strings.Trim(folder, `"`)
	first := name
	if idx := strings.Index(name, "/"); idx >= 0 {
		first = name[:idx]
	}

	for _, excluded := range w.cfg.ExcludeFolders {
		excluded = strings.Trim(excluded, `"`)
		if strings.EqualFold(name, excluded) || strings.EqualFold(first, excluded) {
			return true
		}
	}
	return false
}

// remaining returns how many more messages may be accepted, or -1 when no cap
// is configured.
func (w *Walker) remaining(accepted int) int {
	if w.cfg.MaxMessages == 0 {
		return -1
	}
	return w.cfg.MaxMessages - accepted
}

// walkFolder scans one folder from the newest message down to the oldest.
// The second return value reports whether the message cap was exhausted.
func (w *Walker) walkFolder(session Session, folder string, quota int) ([]model.Message, bool, error) {
	total, err := session.SelectFolder(folder)
	if err != nil {
		return nil, false, fmt.Errorf("select %s: %w", folder, err)
	}
	w.logger.Info("scanning folder", "folder", folder, "messages", total)

	var accepted []model.Message
	for seq := total; seq >= 1; seq-- {
		if quota == 0 {
			return accepted, true, nil
		}

		raw, err := session.FetchRaw(seq)
		if err != nil {
			w.emit(stats.Event{Stage: stats.StageFolder, Type: stats.EventTypeTransportError, Folder: folder, Countdown: seq, Err: err})
			continue
		}

		msg, outcome := w.asm.Assemble(raw)
		w.emit(stats.Event{Stage: stats.StageParse, Type: stats.EventTypeScanned, Folder: folder, Countdown: seq, MessageID: msg.ID, Date: msg.DateStr})

		switch outcome {
		case parse.DroppedHeader:
			w.emit(stats.Event{Stage: stats.StageParse, Type: stats.EventTypeHeaderError, Folder: folder, Countdown: seq})
			continue
		case parse.DroppedUnknownSender:
			w.emit(stats.Event{Stage: stats.StageParse, Type: stats.EventTypeUnknownSender, Folder: folder, Countdown: seq})
			continue
		}

		// The floor compares calendar dates in the message's own offset, not
		// instants: a message written on the floor day counts regardless of
		// where in the world it was sent from.
		if w.cfg.FromDate != "" && msg.DateStr < w.cfg.FromDate {
			w.emit(stats.Event{Stage: stats.StageParse, Type: stats.EventTypeSkippedOld, Folder: folder, Countdown: seq, MessageID: msg.ID, Date: msg.DateStr})
			if w.cfg.StrictStop {
				w.logger.Info("date floor reached, stopping folder", "folder", folder, "date", msg.DateStr)
				return accepted, false, nil
			}
			continue
		}

		if w.tracker.AlreadyArchived(msg.ID) {
			w.emit(stats.Event{Stage: stats.StageParse, Type: stats.EventTypeDuplicate, Folder: folder, Countdown: seq, MessageID: msg.ID})
			continue
		}
		if err := w.tracker.MarkArchived(msg.ID); err != nil {
			w.logger.Warn("state update failed", "messageID", msg.ID, "err", err)
		}

		accepted = append(accepted, msg)
		w.emit(stats.Event{Stage: stats.StageParse, Type: stats.EventTypeAccepted, Folder: folder, Countdown: seq, MessageID: msg.ID, Date: msg.DateStr})
		if quota > 0 {
			quota--
		}
	}

	return accepted, quota == 0, nil
}
