package store

import (
	"context"
	"log"

	"github.com/bwise1/civic_reports/internal/model"
	"github.com/bwise1/civic_reports/util"
	"github.com/pkg/errors"
)

// Draft returns a copy of the report being composed.
func (s *Store) Draft() model.ReportDraft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyDraft(s.draft)
}

// UpdateDraft sets the textual fields present in f.
func (s *Store) UpdateDraft(f model.DraftFields) (model.ReportDraft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return model.ReportDraft{}, ErrClosed
	}
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&s.draft.Location, f.Location)
	set(&s.draft.IssueType, f.IssueType)
	set(&s.draft.Description, f.Description)
	set(&s.draft.Agency, f.Agency)
	set(&s.draft.OfficialName, f.OfficialName)
	set(&s.draft.Urgency, f.Urgency)
	s.draftVersion++
	return copyDraft(s.draft), nil
}

// AttachImages adds images to the draft. Images beyond the limit are
// dropped and ErrTooManyImages is returned; the ones that fit are kept.
func (s *Store) AttachImages(images ...model.ImageAttachment) (model.ReportDraft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return model.ReportDraft{}, ErrClosed
	}

	room := model.MaxReportImages - len(s.draft.Images)
	if room < 0 {
		room = 0
	}
	var err error
	if len(images) > room {
		images = images[:room]
		err = ErrTooManyImages
	}
	s.draft.Images = append(s.draft.Images, images...)
	s.draftVersion++
	return copyDraft(s.draft), err
}

// RemoveImage drops the image at position i.
func (s *Store) RemoveImage(i int) (model.ReportDraft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return model.ReportDraft{}, ErrClosed
	}
	if i < 0 || i >= len(s.draft.Images) {
		return copyDraft(s.draft), ErrImageIndex
	}
	s.draft.Images = append(s.draft.Images[:i:i], s.draft.Images[i+1:]...)
	s.draftVersion++
	return copyDraft(s.draft), nil
}

// SubmitDraft validates the draft and sends it. The draft is cleared only
// when the backend accepts it, so nothing the user typed is lost on failure.
func (s *Store) SubmitDraft(ctx context.Context) (string, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return "", ErrClosed
	}
	if s.submitting {
		s.mu.Unlock()
		return "", ErrSubmitInFlight
	}
	if len(s.draft.Images) > model.MaxReportImages {
		s.draft.Images = s.draft.Images[:model.MaxReportImages]
		s.draftVersion++
		s.mu.Unlock()
		return "", ErrTooManyImages
	}
	draft := copyDraft(s.draft)
	version := s.draftVersion
	if err := util.ValidateStruct(draft); err != nil {
		s.mu.Unlock()
		return "", errors.Wrap(err, "invalid report")
	}
	s.submitting = true
	s.mu.Unlock()

	id, err := s.gw.SubmitReport(ctx, draft)

	s.mu.Lock()
	s.submitting = false
	if s.closed {
		s.mu.Unlock()
		return id, ErrClosed
	}
	if err != nil {
		s.mu.Unlock()
		log.Printf("⚠️ [store]: report submission failed: %v", err)
		return "", err
	}
	if s.draftVersion == version {
		s.draft = model.ReportDraft{}
		s.draftVersion++
	}
	s.mu.Unlock()

	log.Printf("✅ [store]: report submitted (id=%q)", id)
	s.notify(Event{Type: EventReportSubmitted, ReportID: id})
	return id, nil
}

func copyDraft(d model.ReportDraft) model.ReportDraft {
	c := d
	if d.Images != nil {
		c.Images = append([]model.ImageAttachment(nil), d.Images...)
	}
	return c
}
