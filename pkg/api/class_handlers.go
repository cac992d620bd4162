package api

import (
	"net/http"
	"time"

	"github.com/edupilot/edupilot/pkg/apperrors"
	"github.com/edupilot/edupilot/pkg/httputil"
	"github.com/edupilot/edupilot/pkg/middleware"
	"github.com/edupilot/edupilot/pkg/storage"
)

type createClassRequest struct {
	ClassName   string `json:"class_name"`
	Description string `json:"description"`
	TeacherUUID string `json:"teacher_uuid"`
}

type classData struct {
	ClassUUID   string `json:"class_uuid"`
	ClassName   string `json:"class_name"`
	Description string `json:"description"`
	TeacherUUID string `json:"teacher_uuid"`
	InviteCode  string `json:"invite_code"`
}

// createClass creates a class with a generated invite code. Admin only;
// duplicate class names surface as AlreadyExists.
func (s *Server) createClass(w http.ResponseWriter, r *http.Request) {
	var req createClassRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, r, req.ClassName, "class_name") {
		return
	}
	if !httputil.RequireNonEmpty(w, r, req.TeacherUUID, "teacher_uuid") {
		return
	}

	rec, err := s.classes.CreateClass(r.Context(), storage.NewClass{
		ClassName:   req.ClassName,
		Description: req.Description,
		TeacherUUID: req.TeacherUUID,
	})
	if err != nil {
		httputil.WriteAppError(w, r, err)
		return
	}

	httputil.WriteSuccess(w, "Class created successfully", classData{
		ClassUUID:   rec.ClassUUID,
		ClassName:   rec.ClassName,
		Description: rec.Description,
		TeacherUUID: rec.TeacherUUID,
		InviteCode:  rec.InviteCode,
	})
}

type joinClassRequest struct {
	InviteCode string `json:"invite_code"`
}

// joinClass enrolls the authenticated user as a student of the class behind
// the invite code. An unknown code reads as a bad parameter, not a miss, so
// codes cannot be probed apart from other input errors.
func (s *Server) joinClass(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(r)
	if !ok {
		httputil.WriteAppError(w, r, apperrors.New(apperrors.KindInvalidToken))
		return
	}

	var req joinClassRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, r, req.InviteCode, "invite_code") {
		return
	}

	class, err := s.classes.FindClassByInviteCode(r.Context(), req.InviteCode)
	if err != nil {
		if apperrors.IsKind(err, apperrors.KindNotFound) {
			err = apperrors.WithDetail(apperrors.KindInvalidParameter, "invalid invite code")
		}
		httputil.WriteAppError(w, r, err)
		return
	}

	if err := s.classes.AddMember(r.Context(), class.ClassUUID, user.UUID, "student"); err != nil {
		httputil.WriteAppError(w, r, err)
		return
	}

	httputil.WriteSuccess(w, "Joined class successfully", map[string]string{
		"class_uuid": class.ClassUUID,
		"class_name": class.ClassName,
	})
}

type createAssignmentRequest struct {
	Title               string    `json:"title"`
	Description         string    `json:"description"`
	Content             string    `json:"content"`
	Status              string    `json:"status"`
	Deadline            time.Time `json:"deadline"`
	MaxScore            int       `json:"max_score"`
	AllowLateSubmission bool      `json:"allow_late_submission"`
	Attachments         []string  `json:"attachments"`
}

type assignmentData struct {
	UUID                string   `json:"uuid"`
	ClassUUID           string   `json:"class_uuid"`
	Title               string   `json:"title"`
	Description         string   `json:"description"`
	Content             string   `json:"content"`
	Status              string   `json:"status"`
	Deadline            string   `json:"deadline"`
	MaxScore            int      `json:"max_score"`
	AllowLateSubmission bool     `json:"allow_late_submission"`
	Attachments         []string `json:"attachments"`
	SubmissionCount     int      `json:"submission_count"`
	CreatedBy           string   `json:"created_by"`
	CreatedAt           string   `json:"created_at"`
	UpdatedAt           string   `json:"updated_at"`
}

func assignmentFromRecord(rec *storage.AssignmentRecord) assignmentData {
	return assignmentData{
		UUID:                rec.UUID,
		ClassUUID:           rec.ClassUUID,
		Title:               rec.Title,
		Description:         rec.Description,
		Content:             rec.Content,
		Status:              rec.Status,
		Deadline:            rec.Deadline.UTC().Format(time.RFC3339),
		MaxScore:            rec.MaxScore,
		AllowLateSubmission: rec.AllowLateSubmission,
		Attachments:         rec.Attachments,
		SubmissionCount:     rec.SubmissionCount,
		CreatedBy:           rec.CreatedBy,
		CreatedAt:           rec.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:           rec.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// createAssignment adds an assignment to an existing class. Teacher or
// admin only.
func (s *Server) createAssignment(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(r)
	if !ok {
		httputil.WriteAppError(w, r, apperrors.New(apperrors.KindInvalidToken))
		return
	}

	classUUID, ok := httputil.ParsePathStringOrError(w, r, "class_uuid")
	if !ok {
		return
	}

	var req createAssignmentRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, r, req.Title, "title") {
		return
	}

	// The class must exist before anything is inserted.
	if _, err := s.classes.FindClassByUUID(r.Context(), classUUID); err != nil {
		httputil.WriteAppError(w, r, err)
		return
	}

	rec, err := s.classes.CreateAssignment(r.Context(), storage.NewAssignment{
		ClassUUID:           classUUID,
		Title:               req.Title,
		Description:         req.Description,
		Content:             req.Content,
		Status:              req.Status,
		Deadline:            req.Deadline,
		MaxScore:            req.MaxScore,
		AllowLateSubmission: req.AllowLateSubmission,
		Attachments:         req.Attachments,
		CreatedBy:           user.UUID,
	})
	if err != nil {
		httputil.WriteAppError(w, r, err)
		return
	}

	httputil.WriteCreated(w, "Assignment created successfully", assignmentFromRecord(rec))
}

// getAssignment fetches one assignment. The caller must be a member of the
// class the assignment belongs to.
func (s *Server) getAssignment(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(r)
	if !ok {
		httputil.WriteAppError(w, r, apperrors.New(apperrors.KindInvalidToken))
		return
	}

	classUUID, ok := httputil.ParsePathStringOrError(w, r, "class_uuid")
	if !ok {
		return
	}
	assignmentUUID, ok := httputil.ParsePathStringOrError(w, r, "uuid")
	if !ok {
		return
	}

	member, err := s.classes.IsMember(r.Context(), classUUID, user.UUID)
	if err != nil {
		httputil.WriteAppError(w, r, err)
		return
	}
	if !member {
		httputil.WriteAppError(w, r,
			apperrors.WithDetail(apperrors.KindInvalidParameter, "not a member of this class"))
		return
	}

	rec, err := s.classes.FindAssignment(r.Context(), classUUID, assignmentUUID)
	if err != nil {
		httputil.WriteAppError(w, r, err)
		return
	}

	httputil.WriteSuccess(w, "Assignment retrieved successfully", assignmentFromRecord(rec))
}
