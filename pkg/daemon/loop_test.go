package daemon

import (
	"sync"
	"testing"
	"time"
)

func TestTimeSeriesRecorder_GetRecordsIn(t *testing.T) {
	type fields struct {
		MaxRecordCount int
		LastPollTimes  []time.Time
		mu             *sync.Mutex
	}
	type args struct {
		last time.Duration
	}
	tests := []struct {
		name   string
		fields fields
		args   args
		want   int
	}{
		{
			name: "test noncontinuous records",
			fields: fields{
				MaxRecordCount: 10,
				LastPollTimes: []time.Time{
					time.Now().Add(-time.Second * 31).Add(-10 * time.Millisecond),
					time.Now().Add(-time.Second * 20).Add(-10 * time.Millisecond),
					time.Now().Add(-time.Second * 10).Add(-10 * time.Millisecond),
				},
				mu: &sync.Mutex{},
			},
			args: args{
				last: time.Second * 40,
			},
			want: 2,
		},
		{
			name: "test continuous records",
			fields: fields{
				MaxRecordCount: 10,
				LastPollTimes: []time.Time{
					time.Now().Add(-time.Second * 70).Add(-10 * time.Millisecond),
					time.Now().Add(-time.Second * 60).Add(-10 * time.Millisecond),
					time.Now().Add(-time.Second * 40).Add(-10 * time.Millisecond),
					time.Now().Add(-time.Second * 30).Add(-10 * time.Millisecond),
					time.Now().Add(-time.Second * 20).Add(-10 * time.Millisecond),
					time.Now().Add(-time.Second * 10).Add(-10 * time.Millisecond),
				},
				mu: &sync.Mutex{},
			},
			args: args{
				last: time.Second * 50,
			},
			want: 4,
		},
		{
			name: "test stale last record",
			fields: fields{
				MaxRecordCount: 10,
				LastPollTimes: []time.Time{
					time.Now().Add(-time.Second * 70).Add(-10 * time.Millisecond),
					time.Now().Add(-time.Second * 60).Add(-10 * time.Millisecond),
					time.Now().Add(-time.Second * 40).Add(-10 * time.Millisecond),
					time.Now().Add(-time.Second * 30).Add(-10 * time.Millisecond),
					time.Now().Add(-time.Second * 20).Add(-10 * time.Millisecond),
					time.Now().Add(-time.Second * 15).Add(-10 * time.Millisecond),
				},
				mu: &sync.Mutex{},
			},
			args: args{
				last: time.Second * 50,
			},
			want: 0,
		},
	}
	for _, tt := range tests {
		loopInterval = time.Second * 10
		t.Run(tt.name, func(t *testing.T) {
			r := &TimeSeriesRecorder{
				MaxRecordCount: tt.fields.MaxRecordCount,
				LastPollTimes:  tt.fields.LastPollTimes,
				mu:             tt.fields.mu,
			}
			if got := r.GetRecordsIn(tt.args.last); got != tt.want {
				t.Errorf("GetRecordsIn() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCheckMissedPolls(t *testing.T) {
	loopInterval = time.Second * 10

	pollRecorder = NewTimeSeriesRecorder(60)
	if checkMissedPolls() {
		t.Errorf("checkMissedPolls() with no records = true, want false")
	}

	// Four polls where the health window expects eight.
	for _, ago := range []int{40, 30, 20, 10} {
		pollRecorder.AddRecord(time.Now().Add(-time.Duration(ago) * time.Second))
	}
	if !checkMissedPolls() {
		t.Errorf("checkMissedPolls() with a poll gap = false, want true")
	}

	pollRecorder = NewTimeSeriesRecorder(60)
	for ago := 80; ago >= 10; ago -= 10 {
		pollRecorder.AddRecord(time.Now().Add(-time.Duration(ago) * time.Second))
	}
	if checkMissedPolls() {
		t.Errorf("checkMissedPolls() with continuous polls = true, want false")
	}

	pollRecorder = NewTimeSeriesRecorder(60)
}

func TestFrameStore(t *testing.T) {
	frameMu.Lock()
	lastFrame = nil
	frameMu.Unlock()

	if f := latestFrame(); f != nil {
		t.Fatalf("latestFrame() before any poll = %+v, want nil", f)
	}

	f := &Frame{At: time.Now(), Hex: "#CC6619", Color: "Orange"}
	storeFrame(f)
	got := latestFrame()
	if got != f {
		t.Fatalf("latestFrame() = %+v, want the stored frame", got)
	}
}
