package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ai-academy/academy-server/internal/progress"
)

// HandleCourse returns the course outline with per-lesson state for the
// current guest. Lesson bodies are not included here; locked lessons show
// nothing beyond their title and place in the sequence.
func (a *API) HandleCourse(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "no guest identity"})
		return
	}

	summary, err := a.queries.Summary(r.Context(), user.ID)
	if err != nil {
		writeProgressError(w, err)
		return
	}
	byOrder, err := a.queries.ProgressByOrder(r.Context(), user.ID)
	if err != nil {
		writeProgressError(w, err)
		return
	}

	resp := courseResponse{
		Title:          a.catalog.Title(),
		LessonCount:    summary.LessonCount,
		CompletedCount: summary.CompletedCount,
		NextOrderIndex: summary.NextOrderIndex,
	}
	for _, m := range a.catalog.Modules() {
		item := moduleItem{
			OrderIndex:  m.OrderIndex,
			Title:       m.Title,
			Description: m.Description,
		}
		for _, lesson := range a.catalog.LessonsOfModule(m.OrderIndex) {
			ls := lessonSummary{
				OrderIndex:  lesson.OrderIndex,
				Title:       lesson.Title,
				TimeMinutes: lesson.TimeMinutes,
				Status:      string(progress.StatusLocked),
			}
			if p, ok := byOrder[lesson.OrderIndex]; ok {
				ls.Status = string(p.Status)
				ls.BestScore = p.BestScore
				ls.Attempts = p.Attempts
			}
			item.Lessons = append(item.Lessons, ls)
		}
		resp.Modules = append(resp.Modules, item)
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleLesson returns the full lesson body and quiz for an unlocked
// lesson. Locked lessons respond 409 without leaking any content.
func (a *API) HandleLesson(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "no guest identity"})
		return
	}
	order, err := lessonOrder(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	lesson, found := a.catalog.LessonByOrder(order)
	if !found {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "lesson not found"})
		return
	}

	unlocked, err := a.queries.IsUnlocked(r.Context(), user.ID, order)
	if err != nil {
		writeProgressError(w, err)
		return
	}
	if !unlocked {
		writeJSON(w, http.StatusConflict, errorResponse{Error: "lesson is locked"})
		return
	}

	resp := lessonResponse{Lesson: lesson, Status: string(progress.StatusUnlocked)}
	if p, found, err := a.queries.Progress(r.Context(), user.ID, order); err != nil {
		writeProgressError(w, err)
		return
	} else if found {
		resp.Status = string(p.Status)
		resp.Progress = lessonProgress{
			Passed:    p.Passed,
			BestScore: p.BestScore,
			LastScore: p.LastScore,
			Attempts:  p.Attempts,
			Completed: p.CompletedAt,
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleAttempt grades a quiz submission and returns the resulting state.
func (a *API) HandleAttempt(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "no guest identity"})
		return
	}
	order, err := lessonOrder(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	defer r.Body.Close()
	var req attemptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if req.Answers == nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "answers is required"})
		return
	}

	result, err := a.engine.RecordAttempt(r.Context(), user.ID, order, req.Answers)
	if err != nil {
		writeProgressError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// HandleProgress returns the aggregated summary plus per-lesson rows.
func (a *API) HandleProgress(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "no guest identity"})
		return
	}

	summary, err := a.queries.Summary(r.Context(), user.ID)
	if err != nil {
		writeProgressError(w, err)
		return
	}
	byOrder, err := a.queries.ProgressByOrder(r.Context(), user.ID)
	if err != nil {
		writeProgressError(w, err)
		return
	}

	rows := make(map[int]lessonProgressRow, len(byOrder))
	for order, p := range byOrder {
		rows[order] = lessonProgressRow{
			Status:      string(p.Status),
			Passed:      p.Passed,
			BestScore:   p.BestScore,
			LastScore:   p.LastScore,
			Attempts:    p.Attempts,
			CompletedAt: p.CompletedAt,
		}
	}
	writeJSON(w, http.StatusOK, progressResponse{Summary: summary, Lessons: rows})
}

// HandleBadges returns the guest's earned badges in earn order.
func (a *API) HandleBadges(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "no guest identity"})
		return
	}

	badges, err := a.queries.Badges(r.Context(), user.ID)
	if err != nil {
		writeProgressError(w, err)
		return
	}

	resp := badgesResponse{Badges: make([]badgeItem, 0, len(badges))}
	for _, b := range badges {
		resp.Badges = append(resp.Badges, badgeItem{Code: string(b.Code), EarnedAt: b.EarnedAt})
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleExport streams the guest's progress as an xlsx workbook.
func (a *API) HandleExport(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "no guest identity"})
		return
	}
	if a.reports == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "export not available"})
		return
	}

	// Build into a buffer first so an error still gets a JSON response.
	var buf bytes.Buffer
	if err := a.reports.WriteProgress(r.Context(), user.ID, &buf); err != nil {
		writeProgressError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "progress.xlsx"))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = buf.WriteTo(w)
}
