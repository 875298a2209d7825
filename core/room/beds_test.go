package room

import "testing"

func TestResolveBed(t *testing.T) {
	tests := []struct {
		name      string
		capacity  int
		used      []int
		preferred []int
		want      int
		wantErr   error
	}{
		{name: "empty room", capacity: 4, want: 1},
		{name: "smallest unused", capacity: 4, used: []int{1, 3}, want: 2},
		{name: "last bed", capacity: 3, used: []int{1, 2}, want: 3},
		{name: "full", capacity: 2, used: []int{1, 2}, wantErr: ErrRoomFull},
		{name: "full unordered", capacity: 3, used: []int{3, 1, 2}, wantErr: ErrRoomFull},
		{name: "preference honored", capacity: 4, used: []int{1}, preferred: []int{3}, want: 3},
		{name: "preference taken", capacity: 4, used: []int{1, 3}, preferred: []int{3}, want: 2},
		{name: "preference out of range", capacity: 4, used: []int{1}, preferred: []int{9}, want: 2},
		{name: "preference zero", capacity: 4, used: nil, preferred: []int{0}, want: 1},
		{name: "freed bed reused", capacity: 2, used: []int{2}, want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveBed(tt.capacity, tt.used, tt.preferred...)
			if err != tt.wantErr {
				t.Errorf("ResolveBed() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ResolveBed() = %v, want %v", got, tt.want)
			}
		})
	}
}
