package scheduler

import (
	"testing"
	"time"

	"github.com/sandeepkv93/dayplan/internal/model"
)

func TestAlarmEmitsInTriggerOrder(t *testing.T) {
	alarm := NewAlarm(8)
	alarm.Start()
	defer alarm.Stop()

	now := time.Now()
	if err := alarm.Add(BoundaryEvent{InstanceID: "later", At: now.Add(80 * time.Millisecond)}); err != nil {
		t.Fatalf("add later: %v", err)
	}
	if err := alarm.Add(BoundaryEvent{InstanceID: "sooner", At: now.Add(20 * time.Millisecond)}); err != nil {
		t.Fatalf("add sooner: %v", err)
	}

	first := waitEvent(t, alarm.C(), time.Second)
	second := waitEvent(t, alarm.C(), time.Second)
	if first.InstanceID != "sooner" || second.InstanceID != "later" {
		t.Fatalf("unexpected order: first=%s second=%s", first.InstanceID, second.InstanceID)
	}
}

func TestAlarmNonBlockingDropsWhenConsumerIsSlow(t *testing.T) {
	alarm := NewAlarm(1)
	alarm.Start()
	defer alarm.Stop()

	at := time.Now().Add(20 * time.Millisecond)
	for i := 0; i < 25; i++ {
		if err := alarm.Add(BoundaryEvent{InstanceID: "evt", At: at}); err != nil {
			t.Fatalf("add event: %v", err)
		}
	}

	time.Sleep(120 * time.Millisecond)
	if alarm.Dropped() == 0 {
		t.Fatalf("expected dropped events > 0, got %d", alarm.Dropped())
	}
}

func TestAlarmValidatesTriggerTime(t *testing.T) {
	alarm := NewAlarm(1)
	if err := alarm.Add(BoundaryEvent{InstanceID: "bad"}); err != ErrInvalidTriggerTime {
		t.Fatalf("expected ErrInvalidTriggerTime, got %v", err)
	}
}

func TestAlarmArmSkipsPastBoundaries(t *testing.T) {
	alarm := NewAlarm(4)
	result := model.ScheduleResult{
		Date: model.NewDate(2026, time.February, 9),
		Blocks: []model.ScheduledBlock{
			{InstanceID: "early", Start: 8 * 60, End: 9 * 60},
			{InstanceID: "late", Start: 14 * 60, End: 15 * 60},
		},
	}
	now := time.Date(2026, time.February, 9, 8, 30, 0, 0, time.UTC)

	n, err := alarm.Arm(result, now, time.UTC)
	if err != nil {
		t.Fatalf("arm: %v", err)
	}
	if n != 3 || alarm.Pending() != 3 {
		t.Fatalf("expected 3 pending boundaries, got n=%d pending=%d", n, alarm.Pending())
	}

	n, err = alarm.Arm(model.ScheduleResult{Date: result.Date}, now, time.UTC)
	if err != nil || n != 0 {
		t.Fatalf("expected rearm to clear queue, got n=%d err=%v", n, err)
	}
}

func TestBoundaryEventsUseLocation(t *testing.T) {
	loc := time.FixedZone("test", 2*60*60)
	result := model.ScheduleResult{
		Date:   model.NewDate(2026, time.February, 9),
		Blocks: []model.ScheduledBlock{{InstanceID: "a", Title: "A", Start: 90, End: 120}},
	}

	events := BoundaryEvents(result, loc)
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	want := time.Date(2026, time.February, 9, 1, 30, 0, 0, loc)
	if !events[0].At.Equal(want) || events[0].Kind != BoundaryStart {
		t.Fatalf("unexpected start event: %+v", events[0])
	}
	if events[1].Kind != BoundaryEnd || events[1].At.Sub(events[0].At) != 30*time.Minute {
		t.Fatalf("unexpected end event: %+v", events[1])
	}
}

func waitEvent(t *testing.T, ch <-chan BoundaryEvent, timeout time.Duration) BoundaryEvent {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for event")
		return BoundaryEvent{}
	}
}
