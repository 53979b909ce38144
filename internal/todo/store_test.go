package todo

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePersister keeps the last saved snapshot as JSON and counts writes.
type fakePersister struct {
	data    []byte
	saves   int
	loadErr error
	saveErr error
}

func (p *fakePersister) Load() ([]Task, bool, error) {
	if p.loadErr != nil {
		return nil, false, p.loadErr
	}
	if p.data == nil {
		return nil, false, nil
	}
	var tasks []Task
	if err := json.Unmarshal(p.data, &tasks); err != nil {
		return nil, false, &CorruptSnapshotError{Key: "tasks", Err: err}
	}
	return tasks, true, nil
}

func (p *fakePersister) Save(tasks []Task) error {
	if p.saveErr != nil {
		return p.saveErr
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return err
	}
	p.data = data
	p.saves++
	return nil
}

func (p *fakePersister) snapshot(t *testing.T) []Task {
	t.Helper()
	var tasks []Task
	require.NoError(t, json.Unmarshal(p.data, &tasks))
	return tasks
}

func fixedClock() func() time.Time {
	at := time.UnixMilli(1_700_000_000_000)
	return func() time.Time { return at }
}

func openStore(t *testing.T, p *fakePersister) *Store {
	t.Helper()
	s, err := Open(p, WithClock(fixedClock()))
	require.NoError(t, err)
	return s
}

func TestOpen_Empty(t *testing.T) {
	p := &fakePersister{}
	s := openStore(t, p)

	assert.Equal(t, 0, s.Len())
	assert.Equal(t, FilterAll, s.Filter())
	assert.Equal(t, 0, p.saves)
}

func TestOpen_LoadsSnapshot(t *testing.T) {
	p := &fakePersister{data: []byte(`[{"id":5,"text":"a","completed":true},{"id":9,"text":"b","completed":false}]`)}
	s := openStore(t, p)

	v := s.Query()
	require.Len(t, v.Visible, 2)
	assert.Equal(t, int64(5), v.Visible[0].ID)
	assert.Equal(t, 1, v.ActiveCount)
}

func TestOpen_CorruptSnapshot(t *testing.T) {
	p := &fakePersister{data: []byte(`{not json`)}
	s, err := Open(p)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCorruptSnapshot))
	require.NotNil(t, s)
	assert.Equal(t, 0, s.Len())

	_, err = s.Add("still works")
	assert.NoError(t, err)
}

func TestOpen_InvalidTasksAreCorrupt(t *testing.T) {
	p := &fakePersister{data: []byte(`[{"id":1,"text":"a","completed":false},{"id":1,"text":"b","completed":false}]`)}
	s, err := Open(p)

	var corrupt *CorruptSnapshotError
	require.ErrorAs(t, err, &corrupt)
	require.NotNil(t, s)
	assert.Equal(t, 0, s.Len())
}

func TestOpen_LoadError(t *testing.T) {
	p := &fakePersister{loadErr: errors.New("disk gone")}
	s, err := Open(p)

	assert.Nil(t, s)
	assert.ErrorContains(t, err, "disk gone")
	assert.False(t, errors.Is(err, ErrCorruptSnapshot))
}

func TestAdd(t *testing.T) {
	p := &fakePersister{}
	s := openStore(t, p)

	for i, text := range []string{"buy milk", "  walk dog  ", "x"} {
		task, err := s.Add(text)
		require.NoError(t, err)
		assert.False(t, task.Completed)
		assert.NotEqual(t, "", task.Text)
		assert.Equal(t, i+1, s.Len())
		assert.Equal(t, i+1, p.saves)
	}

	v := s.Query()
	assert.Equal(t, "walk dog", v.Visible[1].Text)
	assert.Equal(t, v.Visible, p.snapshot(t))
}

func TestAdd_EmptyInput(t *testing.T) {
	p := &fakePersister{}
	s := openStore(t, p)
	_, err := s.Add("keep")
	require.NoError(t, err)

	for _, text := range []string{"", "   ", "\t\n"} {
		_, err := s.Add(text)
		assert.ErrorIs(t, err, ErrEmptyInput)
	}
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, 1, p.saves)
}

func TestAdd_InvalidUTF8(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"\xff bad utf8", "\uFFFD bad utf8"},
		{"mid\xc3\x28dle", "mid\uFFFD(dle"},
		{"  \xfe\xff  ", "\uFFFD"},
		{"naïve 日本語 🎉", "naïve 日本語 🎉"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			p := &fakePersister{}
			s := openStore(t, p)

			task, err := s.Add(tt.in)
			require.NoError(t, err)
			assert.True(t, utf8.ValidString(task.Text))
			assert.Equal(t, tt.want, task.Text)

			reopened := openStore(t, p)
			got, ok := reopened.Get(task.ID)
			require.True(t, ok)
			assert.Equal(t, task.Text, got.Text)
		})
	}
}

func TestAdd_UniqueIncreasingIDs(t *testing.T) {
	s := openStore(t, &fakePersister{})

	var last int64
	for i := 0; i < 20; i++ {
		task, err := s.Add("task")
		require.NoError(t, err)
		assert.Greater(t, task.ID, last)
		last = task.ID
	}
}

func TestAdd_IDAfterLoadedSnapshot(t *testing.T) {
	p := &fakePersister{data: []byte(`[{"id":1800000000000,"text":"future","completed":false}]`)}
	s := openStore(t, p)

	task, err := s.Add("now")
	require.NoError(t, err)
	assert.Equal(t, int64(1800000000001), task.ID)
}

func TestToggle(t *testing.T) {
	p := &fakePersister{}
	s := openStore(t, p)
	a, _ := s.Add("a")
	b, _ := s.Add("b")

	got, err := s.Toggle(a.ID)
	require.NoError(t, err)
	assert.True(t, got.Completed)
	assert.Equal(t, a.Text, got.Text)

	other, _ := s.Get(b.ID)
	assert.False(t, other.Completed)

	got, err = s.Toggle(a.ID)
	require.NoError(t, err)
	assert.Equal(t, a, got)
	assert.Equal(t, 4, p.saves)
}

func TestToggle_NotFound(t *testing.T) {
	p := &fakePersister{}
	s := openStore(t, p)
	_, _ = s.Add("a")

	_, err := s.Toggle(42)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, p.saves)
}

func TestRemove(t *testing.T) {
	p := &fakePersister{}
	s := openStore(t, p)
	a, _ := s.Add("a")
	b, _ := s.Add("b")
	c, _ := s.Add("c")

	require.NoError(t, s.Remove(b.ID))
	v := s.Query()
	assert.Equal(t, []Task{a, c}, v.Visible)
	assert.Equal(t, 4, p.saves)

	err := s.Remove(b.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, []Task{a, c}, s.Query().Visible)
	assert.Equal(t, 4, p.saves)
}

func TestRemove_WrongID(t *testing.T) {
	p := &fakePersister{}
	s := openStore(t, p)
	x, _ := s.Add("x")

	err := s.Remove(x.ID + 1000)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, []Task{x}, s.Query().Visible)
	assert.Equal(t, 1, p.saves)
}

func TestClearCompleted(t *testing.T) {
	p := &fakePersister{}
	s := openStore(t, p)
	a, _ := s.Add("a")
	b, _ := s.Add("b")
	c, _ := s.Add("c")
	d, _ := s.Add("d")
	_, _ = s.Toggle(a.ID)
	_, _ = s.Toggle(c.ID)
	saves := p.saves

	removed, err := s.ClearCompleted()
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.Equal(t, []Task{b, d}, s.Query().Visible)
	assert.Equal(t, saves+1, p.saves)

	removed, err = s.ClearCompleted()
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
	assert.Equal(t, saves+2, p.saves, "clear with nothing completed still saves")
}

func TestSetFilter_DoesNotPersist(t *testing.T) {
	p := &fakePersister{}
	s := openStore(t, p)
	_, _ = s.Add("a")

	s.SetFilter(FilterCompleted)
	assert.Equal(t, FilterCompleted, s.Filter())
	assert.Equal(t, 1, p.saves)
	assert.Equal(t, 1, s.Len())
}

func TestQuery_ActiveCountIgnoresFilter(t *testing.T) {
	s := openStore(t, &fakePersister{})
	a, _ := s.Add("a")
	_, _ = s.Add("b")
	_, _ = s.Add("c")
	_, _ = s.Toggle(a.ID)

	for _, f := range Filters() {
		s.SetFilter(f)
		v := s.Query()
		assert.Equal(t, 2, v.ActiveCount, "filter %s", f)
		assert.Equal(t, f, v.Filter)
		for _, task := range v.Visible {
			assert.True(t, f.Match(task))
		}
	}
}

func TestQuery_ReturnsCopy(t *testing.T) {
	s := openStore(t, &fakePersister{})
	a, _ := s.Add("a")

	v := s.Query()
	v.Visible[0].Text = "mutated"

	got, ok := s.Get(a.ID)
	require.True(t, ok)
	assert.Equal(t, "a", got.Text)
}

func TestSaveFailureRollsBack(t *testing.T) {
	p := &fakePersister{}
	s := openStore(t, p)
	a, _ := s.Add("a")

	p.saveErr = errors.New("quota exceeded")

	_, err := s.Add("b")
	assert.ErrorContains(t, err, "quota exceeded")
	_, err = s.Toggle(a.ID)
	assert.Error(t, err)
	assert.Error(t, s.Remove(a.ID))

	assert.Equal(t, []Task{a}, s.Query().Visible)
}

func TestScenario_FilterCompleted(t *testing.T) {
	s := openStore(t, &fakePersister{})
	milk, err := s.Add("buy milk")
	require.NoError(t, err)
	_, err = s.Add("walk dog")
	require.NoError(t, err)
	_, err = s.Toggle(milk.ID)
	require.NoError(t, err)

	s.SetFilter(FilterCompleted)
	v := s.Query()

	require.Len(t, v.Visible, 1)
	assert.Equal(t, "buy milk", v.Visible[0].Text)
	assert.True(t, v.Visible[0].Completed)
	assert.Equal(t, 1, v.ActiveCount)
}

func TestReopenRoundTrip(t *testing.T) {
	p := &fakePersister{}
	s := openStore(t, p)
	a, _ := s.Add("a")
	_, _ = s.Add("b")
	_, _ = s.Toggle(a.ID)
	want := s.Query().Visible

	reopened := openStore(t, p)
	assert.Equal(t, want, reopened.Query().Visible)
}

func TestConcurrentAddAndToggle(t *testing.T) {
	p := &fakePersister{}
	s := openStore(t, p)

	const n = 16
	seed := make([]Task, n)
	for i := range seed {
		task, err := s.Add("seed")
		require.NoError(t, err)
		seed[i] = task
	}

	var wg sync.WaitGroup
	added := make(chan Task, n)
	for i := 0; i < n; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			task, err := s.Add("parallel")
			assert.NoError(t, err)
			added <- task
		}()
		go func(id int64) {
			defer wg.Done()
			_, err := s.Toggle(id)
			assert.NoError(t, err)
		}(seed[i].ID)
	}
	wg.Wait()
	close(added)

	ids := make(map[int64]bool)
	for _, task := range p.snapshot(t) {
		assert.False(t, ids[task.ID], "duplicate id %d", task.ID)
		ids[task.ID] = true
	}
	for task := range added {
		assert.True(t, ids[task.ID], "added task %d missing from snapshot", task.ID)
	}
	assert.Len(t, ids, 2*n)
	assert.Equal(t, 3*n, p.saves)
	assert.Equal(t, n, s.Query().ActiveCount)
}
