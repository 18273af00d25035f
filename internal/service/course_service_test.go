package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iti-edu/schoolmis-api/internal/models"
	appErrors "github.com/iti-edu/schoolmis-api/pkg/errors"
)

type mockCourseRepo struct {
	courses map[string]models.Course
	nextID  int
}

func newMockCourseRepo() *mockCourseRepo {
	return &mockCourseRepo{courses: make(map[string]models.Course)}
}

func (m *mockCourseRepo) Create(ctx context.Context, course *models.Course) error {
	for _, existing := range m.courses {
		if existing.CourseCode == course.CourseCode {
			return appErrors.Clone(appErrors.ErrDuplicate, "course code already exists")
		}
	}
	m.nextID++
	course.ID = fmt.Sprintf("course-%d", m.nextID)
	m.courses[course.ID] = *course
	return nil
}

func (m *mockCourseRepo) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if c, ok := m.courses[id]; ok {
		found := c
		return &found, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCourseRepo) FindByCode(ctx context.Context, code string) (*models.Course, error) {
	for _, c := range m.courses {
		if c.CourseCode == code {
			found := c
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockCourseRepo) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, error) {
	var list []models.Course
	for _, c := range m.courses {
		list = append(list, c)
	}
	return list, nil
}

func (m *mockCourseRepo) Update(ctx context.Context, course *models.Course) error {
	if _, ok := m.courses[course.ID]; !ok {
		return sql.ErrNoRows
	}
	m.courses[course.ID] = *course
	return nil
}

func (m *mockCourseRepo) SetActive(ctx context.Context, id string, active bool) error {
	c, ok := m.courses[id]
	if !ok {
		return sql.ErrNoRows
	}
	c.Active = active
	m.courses[id] = c
	return nil
}

func (m *mockCourseRepo) Delete(ctx context.Context, id string) error {
	delete(m.courses, id)
	return nil
}

type mockRosterLister struct {
	roster []models.Enrollment
}

func (m *mockRosterLister) ListByCourse(ctx context.Context, courseID string) ([]models.Enrollment, error) {
	return m.roster, nil
}

func newCourseService(repo *mockCourseRepo) *CourseService {
	return NewCourseService(repo, &mockRosterLister{}, nil, nil)
}

func seedCourse(t *testing.T, svc *CourseService, code string, capacity int) *models.Course {
	t.Helper()
	course, err := svc.Create(context.Background(), CreateCourseRequest{
		CourseCode:  code,
		CourseName:  "Algorithms",
		CreditHours: 3,
		TeacherID:   "t1",
		MaxCapacity: capacity,
	})
	require.NoError(t, err)
	return course
}

func TestCourseServiceCreate(t *testing.T) {
	repo := newMockCourseRepo()
	svc := newCourseService(repo)

	course := seedCourse(t, svc, "CS-201", 30)
	assert.True(t, course.Active)
	assert.Zero(t, course.CurrentEnrollment)
	assert.Equal(t, 30, course.MaxCapacity)
}

func TestCourseServiceCreateDuplicateCode(t *testing.T) {
	repo := newMockCourseRepo()
	svc := newCourseService(repo)

	seedCourse(t, svc, "CS-201", 30)
	_, err := svc.Create(context.Background(), CreateCourseRequest{
		CourseCode: "CS-201", CourseName: "Algorithms II", TeacherID: "t1", MaxCapacity: 10,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDuplicate.Code, appErrors.FromError(err).Code)
}

func TestCourseServiceCreateRejectsZeroCapacity(t *testing.T) {
	svc := newCourseService(newMockCourseRepo())

	_, err := svc.Create(context.Background(), CreateCourseRequest{
		CourseCode: "CS-201", CourseName: "Algorithms", TeacherID: "t1", MaxCapacity: 0,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCourseServiceAvailableSeats(t *testing.T) {
	repo := newMockCourseRepo()
	svc := newCourseService(repo)

	course := seedCourse(t, svc, "CS-201", 30)

	stored := repo.courses[course.ID]
	stored.CurrentEnrollment = 12
	repo.courses[course.ID] = stored

	remaining, err := svc.AvailableSeats(context.Background(), course.ID)
	require.NoError(t, err)
	assert.Equal(t, 18, remaining)
}

func TestCourseServiceUpdateCapacityShrinkRejected(t *testing.T) {
	repo := newMockCourseRepo()
	svc := newCourseService(repo)

	course := seedCourse(t, svc, "CS-201", 30)
	stored := repo.courses[course.ID]
	stored.CurrentEnrollment = 20
	repo.courses[course.ID] = stored

	smaller := 15
	_, err := svc.Update(context.Background(), course.ID, UpdateCourseRequest{MaxCapacity: &smaller})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	larger := 40
	updated, err := svc.Update(context.Background(), course.ID, UpdateCourseRequest{MaxCapacity: &larger})
	require.NoError(t, err)
	assert.Equal(t, 40, updated.MaxCapacity)
}

func TestCourseServiceSetActive(t *testing.T) {
	repo := newMockCourseRepo()
	svc := newCourseService(repo)

	course := seedCourse(t, svc, "CS-201", 30)

	closed, err := svc.SetActive(context.Background(), course.ID, false)
	require.NoError(t, err)
	assert.False(t, closed.Active)

	reopened, err := svc.SetActive(context.Background(), course.ID, true)
	require.NoError(t, err)
	assert.True(t, reopened.Active)
}

func TestCourseServiceDeleteWithRosterRejected(t *testing.T) {
	repo := newMockCourseRepo()
	svc := newCourseService(repo)

	course := seedCourse(t, svc, "CS-201", 30)
	stored := repo.courses[course.ID]
	stored.CurrentEnrollment = 1
	repo.courses[course.ID] = stored

	err := svc.Delete(context.Background(), course.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	stored.CurrentEnrollment = 0
	repo.courses[course.ID] = stored
	require.NoError(t, svc.Delete(context.Background(), course.ID))
	assert.Empty(t, repo.courses)
}

func TestCourseServiceGetNotFound(t *testing.T) {
	svc := newCourseService(newMockCourseRepo())

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
