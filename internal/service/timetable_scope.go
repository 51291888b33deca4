package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

// CoreSubjectCodes are compulsory for every senior class, in scheduling order.
var CoreSubjectCodes = []string{"ENG", "KIS", "MAT", "CSL"}

// requiredElectives is the number of electives the full scope expects.
const requiredElectives = 3

type scopeSubjectReader interface {
	FindByCodes(ctx context.Context, exec sqlx.ExtContext, schoolID string, codes []string) ([]models.Subject, error)
	FindByIDs(ctx context.Context, exec sqlx.ExtContext, schoolID string, ids []string) ([]models.Subject, error)
}

type scopeClassSubjectStore interface {
	ListByClasses(ctx context.Context, exec sqlx.ExtContext, classIDs []string) ([]models.ClassSubject, error)
	UpsertBatch(ctx context.Context, exec sqlx.ExtContext, mappings []models.ClassSubject) error
}

// subjectScopeResolver decides which subjects each senior class is scheduled for.
type subjectScopeResolver struct {
	subjects      scopeSubjectReader
	classSubjects scopeClassSubjectStore
}

func newSubjectScopeResolver(subjects scopeSubjectReader, classSubjects scopeClassSubjectStore) *subjectScopeResolver {
	return &subjectScopeResolver{subjects: subjects, classSubjects: classSubjects}
}

// Resolve maps class id to its subject ids. exec carries the generation transaction so the
// full scope mapping write commits or rolls back together with the slots.
func (r *subjectScopeResolver) Resolve(ctx context.Context, exec sqlx.ExtContext, schoolID string, scope dto.ScopeConfig, classes []models.Class) (map[string][]string, error) {
	switch scope.Mode {
	case dto.ScopeCore:
		core, err := r.coreSubjectIDs(ctx, exec, schoolID)
		if err != nil {
			return nil, err
		}
		return sameSubjectsFor(classes, core), nil
	case dto.ScopeFull:
		return r.resolveFull(ctx, exec, schoolID, scope.ElectiveSubjectIDs, classes)
	case dto.ScopeAssigned:
		return r.resolveAssigned(ctx, exec, classes)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown scope mode %q", scope.Mode))
	}
}

func (r *subjectScopeResolver) coreSubjectIDs(ctx context.Context, exec sqlx.ExtContext, schoolID string) ([]string, error) {
	subjects, err := r.subjects.FindByCodes(ctx, exec, schoolID, CoreSubjectCodes)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load core subjects")
	}
	byCode := make(map[string]string, len(subjects))
	for _, subject := range subjects {
		byCode[strings.ToUpper(subject.Code)] = subject.ID
	}

	ids := make([]string, 0, len(CoreSubjectCodes))
	var missing []string
	for _, code := range CoreSubjectCodes {
		id, ok := byCode[code]
		if !ok {
			missing = append(missing, code)
			continue
		}
		ids = append(ids, id)
	}
	if len(missing) > 0 {
		return nil, appErrors.WithDetails(appErrors.ErrMissingSubjects,
			fmt.Sprintf("missing core subjects: %s", strings.Join(missing, ", ")),
			map[string][]string{"missing_codes": missing})
	}
	return ids, nil
}

func (r *subjectScopeResolver) resolveFull(ctx context.Context, exec sqlx.ExtContext, schoolID string, electives []string, classes []models.Class) (map[string][]string, error) {
	if len(electives) != requiredElectives {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("full scope requires exactly %d elective subjects", requiredElectives))
	}
	seen := make(map[string]bool, len(electives))
	for _, id := range electives {
		if id == "" || seen[id] {
			return nil, appErrors.Clone(appErrors.ErrValidation, "elective subjects must be distinct")
		}
		seen[id] = true
	}

	found, err := r.subjects.FindByIDs(ctx, exec, schoolID, electives)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load elective subjects")
	}
	if len(found) != len(electives) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "elective subjects must belong to the school catalog")
	}

	core, err := r.coreSubjectIDs(ctx, exec, schoolID)
	if err != nil {
		return nil, err
	}
	combined := append([]string{}, core...)
	for _, id := range electives {
		if !containsString(combined, id) {
			combined = append(combined, id)
		}
	}

	mappings := make([]models.ClassSubject, 0, len(classes)*len(combined))
	for _, class := range classes {
		for _, subjectID := range combined {
			mappings = append(mappings, models.ClassSubject{ClassID: class.ID, SubjectID: subjectID})
		}
	}
	if err := r.classSubjects.UpsertBatch(ctx, exec, mappings); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign subjects to classes")
	}
	return sameSubjectsFor(classes, combined), nil
}

func (r *subjectScopeResolver) resolveAssigned(ctx context.Context, exec sqlx.ExtContext, classes []models.Class) (map[string][]string, error) {
	ids := make([]string, 0, len(classes))
	result := make(map[string][]string, len(classes))
	for _, class := range classes {
		ids = append(ids, class.ID)
		result[class.ID] = []string{}
	}

	mappings, err := r.classSubjects.ListByClasses(ctx, exec, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class subjects")
	}
	for _, mapping := range mappings {
		current, ok := result[mapping.ClassID]
		if !ok || containsString(current, mapping.SubjectID) {
			continue
		}
		result[mapping.ClassID] = append(current, mapping.SubjectID)
	}
	return result, nil
}

func sameSubjectsFor(classes []models.Class, subjects []string) map[string][]string {
	result := make(map[string][]string, len(classes))
	for _, class := range classes {
		result[class.ID] = append([]string{}, subjects...)
	}
	return result
}

func containsString(items []string, target string) bool {
	for _, item := range items {
		if item == target {
			return true
		}
	}
	return false
}
