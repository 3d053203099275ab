package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/carecircle/carecircle_api/internal/availability"
	"github.com/carecircle/carecircle_api/internal/model"
	"github.com/carecircle/carecircle_api/internal/notify"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type window struct {
	from, to time.Time
}

type fakeTaskStore struct {
	tasks      []model.Task
	queried    []window
	marked     []uuid.UUID
	alreadySet bool
	failQuery  bool
	failMark   bool
}

func (f *fakeTaskStore) GetDueUnnotifiedTasks(_ context.Context, from, to time.Time) ([]model.Task, error) {
	f.queried = append(f.queried, window{from: from, to: to})
	if f.failQuery {
		return nil, errors.New("db down")
	}
	var out []model.Task
	for _, t := range f.tasks {
		if t.ReminderSent {
			continue
		}
		clock, err := time.Parse("15:04", t.DueTime)
		if err != nil {
			continue
		}
		at := time.Date(t.DueDate.Year(), t.DueDate.Month(), t.DueDate.Day(), clock.Hour(), clock.Minute(), 0, 0, time.Local)
		if at.After(from) && !at.After(to) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTaskStore) MarkTaskNotified(_ context.Context, taskID uuid.UUID) (bool, error) {
	if f.failMark {
		return false, errors.New("db down")
	}
	f.marked = append(f.marked, taskID)
	if f.alreadySet {
		return false, nil
	}
	for i := range f.tasks {
		if f.tasks[i].ID == taskID {
			f.tasks[i].ReminderSent = true
		}
	}
	return true, nil
}

type fakeMemberStore struct {
	members     []notify.Member
	days        map[uuid.UUID][]availability.DaySlots
	failMembers bool
	failOnCall  int // fail the Nth lookup only, 1-based
	calls       int
}

func (f *fakeMemberStore) GetCircleMembersWithTokens(_ context.Context, _ uuid.UUID) ([]notify.Member, error) {
	f.calls++
	if f.failMembers || f.calls == f.failOnCall {
		return nil, errors.New("db down")
	}
	return f.members, nil
}

func (f *fakeMemberStore) GetCircleAdmin(_ context.Context, _ uuid.UUID) (notify.Member, error) {
	return notify.Member{}, errors.New("no admin")
}

func (f *fakeMemberStore) GetAvailability(_ context.Context, memberID, _ uuid.UUID) ([]availability.DaySlots, error) {
	return f.days[memberID], nil
}

type fakeProvider struct {
	batches [][]string
}

func (f *fakeProvider) MaxBatchSize() int { return 100 }

func (f *fakeProvider) SendBatch(_ context.Context, tokens []string, _, _ string, _ map[string]string) (notify.BatchResult, error) {
	f.batches = append(f.batches, tokens)
	return notify.BatchResult{SuccessCount: len(tokens)}, nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func newScheduler(store *fakeTaskStore, members *fakeMemberStore, push *fakeProvider) *Scheduler {
	log := quietLogger()
	return New(store, notify.NewResolver(members, log), notify.NewDispatcher(push, log), log, 30*time.Minute, time.Minute)
}

func allDay(day time.Weekday) []availability.DaySlots {
	return []availability.DaySlots{{Day: day, Slots: []availability.Slot{{Start: "00:00", End: "23:59"}}}}
}

func TestDueTargetQuantizesToMinute(t *testing.T) {
	now := time.Date(2026, 3, 9, 14, 29, 47, 123456, time.UTC)
	got := DueTarget(now, 30*time.Minute)
	want := time.Date(2026, 3, 9, 14, 59, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("DueTarget = %v, want %v", got, want)
	}

	// A lead crossing midnight moves the date.
	got = DueTarget(time.Date(2026, 3, 9, 23, 45, 0, 0, time.UTC), 30*time.Minute)
	want = time.Date(2026, 3, 10, 0, 15, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("DueTarget across midnight = %v, want %v", got, want)
	}
}

func TestTickDispatchesAndMarks(t *testing.T) {
	// 2026-01-05 is a Monday.
	due := time.Date(2026, 1, 5, 0, 0, 0, 0, time.Local)
	task := model.Task{
		ID:       uuid.New(),
		CircleID: uuid.New(),
		Title:    "Courses",
		DueDate:  due,
		DueTime:  "15:00",
	}

	helper := notify.Member{ID: uuid.New(), Name: "Bob", Tokens: []string{"tok-b"}}
	store := &fakeTaskStore{tasks: []model.Task{task}}
	members := &fakeMemberStore{
		members: []notify.Member{helper},
		days:    map[uuid.UUID][]availability.DaySlots{helper.ID: allDay(time.Monday)},
	}
	push := &fakeProvider{}

	s := newScheduler(store, members, push)
	s.Tick(context.Background(), due.Add(14*time.Hour+30*time.Minute)) // 14:30 + 30m lead = 15:00

	if len(push.batches) != 1 || len(push.batches[0]) != 1 || push.batches[0][0] != "tok-b" {
		t.Fatalf("push batches = %v, want one batch [tok-b]", push.batches)
	}
	if len(store.marked) != 1 || store.marked[0] != task.ID {
		t.Errorf("marked = %v, want [%s]", store.marked, task.ID)
	}
}

func TestTickSkipsTasksOutsideWindow(t *testing.T) {
	due := time.Date(2026, 1, 5, 0, 0, 0, 0, time.Local)
	task := model.Task{ID: uuid.New(), CircleID: uuid.New(), Title: "Repas", DueDate: due, DueTime: "18:00"}

	store := &fakeTaskStore{tasks: []model.Task{task}}
	push := &fakeProvider{}
	s := newScheduler(store, &fakeMemberStore{}, push)

	s.Tick(context.Background(), due.Add(14*time.Hour+30*time.Minute)) // window ends 15:00, task is at 18:00

	if len(push.batches) != 0 || len(store.marked) != 0 {
		t.Errorf("nothing should happen for a task outside the window, got batches=%v marked=%v", push.batches, store.marked)
	}
}

func TestFailedQueryWindowRetriedNextTick(t *testing.T) {
	due := time.Date(2026, 1, 5, 0, 0, 0, 0, time.Local) // Monday
	task := model.Task{ID: uuid.New(), CircleID: uuid.New(), Title: "Courses", DueDate: due, DueTime: "15:00"}

	helper := notify.Member{ID: uuid.New(), Tokens: []string{"tok"}}
	store := &fakeTaskStore{tasks: []model.Task{task}, failQuery: true}
	members := &fakeMemberStore{
		members: []notify.Member{helper},
		days:    map[uuid.UUID][]availability.DaySlots{helper.ID: allDay(time.Monday)},
	}
	push := &fakeProvider{}
	s := newScheduler(store, members, push)

	// The store is down for the tick whose window covers 15:00.
	s.Tick(context.Background(), due.Add(14*time.Hour+30*time.Minute))
	if len(push.batches) != 0 {
		t.Fatalf("no dispatch expected while the store is down, got %v", push.batches)
	}

	// One minute later the store is back; the unprocessed window must be
	// rescanned so the 15:00 task still gets its reminder.
	store.failQuery = false
	s.Tick(context.Background(), due.Add(14*time.Hour+31*time.Minute))

	if len(push.batches) != 1 || len(push.batches[0]) != 1 || push.batches[0][0] != "tok" {
		t.Fatalf("push batches = %v, want one batch [tok] after recovery", push.batches)
	}
	if len(store.marked) != 1 || store.marked[0] != task.ID {
		t.Errorf("marked = %v, want [%s]", store.marked, task.ID)
	}
	last := store.queried[len(store.queried)-1]
	if !last.from.Before(due.Add(15 * time.Hour)) {
		t.Errorf("recovery window starts at %v, must still cover 15:00", last.from)
	}
}

func TestResolveFailureRetriedNextTick(t *testing.T) {
	due := time.Date(2026, 1, 5, 0, 0, 0, 0, time.Local) // Monday
	task := model.Task{ID: uuid.New(), CircleID: uuid.New(), Title: "Visite", DueDate: due, DueTime: "15:00"}

	helper := notify.Member{ID: uuid.New(), Tokens: []string{"tok"}}
	store := &fakeTaskStore{tasks: []model.Task{task}}
	members := &fakeMemberStore{
		members:     []notify.Member{helper},
		days:        map[uuid.UUID][]availability.DaySlots{helper.ID: allDay(time.Monday)},
		failMembers: true,
	}
	push := &fakeProvider{}
	s := newScheduler(store, members, push)

	// Recipient resolution fails; the flag stays unset so the task must come
	// back on the next tick.
	s.Tick(context.Background(), due.Add(14*time.Hour+30*time.Minute))
	if len(store.marked) != 0 {
		t.Fatalf("a task whose resolution failed must not be marked, got %v", store.marked)
	}

	members.failMembers = false
	s.Tick(context.Background(), due.Add(14*time.Hour+31*time.Minute))

	if len(push.batches) != 1 {
		t.Fatalf("push batches = %v, want exactly one after recovery", push.batches)
	}
	if len(store.marked) != 1 || store.marked[0] != task.ID {
		t.Errorf("marked = %v, want [%s]", store.marked, task.ID)
	}
}

func TestMarkedTaskNotResentOnRescan(t *testing.T) {
	due := time.Date(2026, 1, 5, 0, 0, 0, 0, time.Local) // Monday
	first := model.Task{ID: uuid.New(), CircleID: uuid.New(), Title: "Courses", DueDate: due, DueTime: "15:00"}
	second := model.Task{ID: uuid.New(), CircleID: uuid.New(), Title: "Visite", DueDate: due, DueTime: "15:00"}

	helper := notify.Member{ID: uuid.New(), Tokens: []string{"tok"}}
	store := &fakeTaskStore{tasks: []model.Task{first, second}}
	members := &fakeMemberStore{
		members:    []notify.Member{helper},
		days:       map[uuid.UUID][]availability.DaySlots{helper.ID: allDay(time.Monday)},
		failOnCall: 2, // first task resolves, second fails and forces a rescan
	}
	push := &fakeProvider{}
	s := newScheduler(store, members, push)

	s.Tick(context.Background(), due.Add(14*time.Hour+30*time.Minute))
	if len(store.marked) != 1 {
		t.Fatalf("first pass should mark exactly the task it delivered, got %v", store.marked)
	}

	s.Tick(context.Background(), due.Add(14*time.Hour+31*time.Minute))

	// The rescan re-yields only the task whose flag is still unset; the one
	// marked in the first pass gets no second push.
	if len(push.batches) != 2 {
		t.Fatalf("push batches = %v, want one per task across both ticks", push.batches)
	}
	if len(store.marked) != 2 {
		t.Errorf("marked = %v, want both tasks exactly once", store.marked)
	}
	if store.marked[0] == store.marked[1] {
		t.Errorf("the same task was marked twice: %v", store.marked)
	}
}

func TestZeroRecipientsStillMarks(t *testing.T) {
	due := time.Date(2026, 1, 5, 0, 0, 0, 0, time.Local)
	skill := "Médical"
	task := model.Task{ID: uuid.New(), CircleID: uuid.New(), Title: "Soins", RequiredSkill: &skill, DueDate: due, DueTime: "15:00"}

	// One member, no matching skill: the reminder has nobody to reach.
	member := notify.Member{ID: uuid.New(), Tokens: []string{"tok"}, Skills: []string{"Jardinage"}}
	store := &fakeTaskStore{tasks: []model.Task{task}}
	push := &fakeProvider{}
	s := newScheduler(store, &fakeMemberStore{members: []notify.Member{member}}, push)

	s.Tick(context.Background(), due.Add(14*time.Hour+30*time.Minute))

	if len(push.batches) != 0 {
		t.Errorf("no push expected, got %v", push.batches)
	}
	if len(store.marked) != 1 {
		t.Error("the task must be marked even when nobody is notified")
	}
}

func TestUnavailableHelperExcluded(t *testing.T) {
	due := time.Date(2026, 1, 5, 0, 0, 0, 0, time.Local) // Monday
	task := model.Task{ID: uuid.New(), CircleID: uuid.New(), Title: "Visite", DueDate: due, DueTime: "15:00"}

	free := notify.Member{ID: uuid.New(), Tokens: []string{"tok-free"}}
	busy := notify.Member{ID: uuid.New(), Tokens: []string{"tok-busy"}}
	members := &fakeMemberStore{
		members: []notify.Member{free, busy},
		days: map[uuid.UUID][]availability.DaySlots{
			free.ID: allDay(time.Monday),
			busy.ID: {{Day: time.Monday, Slots: []availability.Slot{{Start: "18:00", End: "20:00"}}}},
		},
	}
	store := &fakeTaskStore{tasks: []model.Task{task}}
	push := &fakeProvider{}
	s := newScheduler(store, members, push)

	s.Tick(context.Background(), due.Add(14*time.Hour+30*time.Minute))

	if len(push.batches) != 1 || len(push.batches[0]) != 1 || push.batches[0][0] != "tok-free" {
		t.Errorf("push batches = %v, want only tok-free", push.batches)
	}
}

func TestLostMarkRaceIsQuiet(t *testing.T) {
	due := time.Date(2026, 1, 5, 0, 0, 0, 0, time.Local)
	task := model.Task{ID: uuid.New(), CircleID: uuid.New(), Title: "Courses", DueDate: due, DueTime: "15:00"}

	store := &fakeTaskStore{tasks: []model.Task{task}, alreadySet: true}
	s := newScheduler(store, &fakeMemberStore{}, &fakeProvider{})

	// Must not panic or error; the other worker's mark wins.
	s.Tick(context.Background(), due.Add(14*time.Hour+30*time.Minute))

	if len(store.marked) != 1 {
		t.Errorf("mark should still be attempted once, got %v", store.marked)
	}
}

func TestQueryFailureIsNonFatal(t *testing.T) {
	store := &fakeTaskStore{failQuery: true}
	push := &fakeProvider{}
	s := newScheduler(store, &fakeMemberStore{}, push)

	s.Tick(context.Background(), time.Now())

	if len(push.batches) != 0 {
		t.Errorf("no dispatch expected when the query fails, got %v", push.batches)
	}
}
