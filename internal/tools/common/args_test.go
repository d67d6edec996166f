package common

import (
	"reflect"
	"testing"
)

func TestStringArg(t *testing.T) {
	args := map[string]interface{}{"name": "  Alice ", "n": 3}

	if got := StringArg(args, "name"); got != "Alice" {
		t.Errorf("StringArg(name) = %q, want Alice", got)
	}
	if got := StringArg(args, "n"); got != "" {
		t.Errorf("StringArg on a number = %q, want empty", got)
	}
	if got := StringArg(nil, "name"); got != "" {
		t.Errorf("StringArg on nil args = %q, want empty", got)
	}
}

func TestRequireString(t *testing.T) {
	if _, err := RequireString(map[string]interface{}{"eventId": "   "}, "eventId"); err == nil {
		t.Error("expected error for blank value")
	} else if err.Error() != "eventId is required" {
		t.Errorf("unexpected error text %q", err)
	}

	got, err := RequireString(map[string]interface{}{"eventId": "ev-1"}, "eventId")
	if err != nil || got != "ev-1" {
		t.Errorf("RequireString = %q, %v", got, err)
	}
}

func TestIntArg(t *testing.T) {
	tests := []struct {
		name    string
		value   interface{}
		want    int
		wantErr bool
	}{
		{name: "missing uses default", value: nil, want: 60},
		{name: "json number", value: float64(90), want: 90},
		{name: "fraction", value: 1.5, wantErr: true},
		{name: "int", value: 30, want: 30},
		{name: "numeric string", value: " 45 ", want: 45},
		{name: "garbage string", value: "abc", wantErr: true},
		{name: "bool", value: true, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := map[string]interface{}{}
			if tt.value != nil {
				args["n"] = tt.value
			}
			got, err := IntArg(args, "n", 60)
			if (err != nil) != tt.wantErr {
				t.Fatalf("IntArg error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("IntArg = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestStringSliceArg(t *testing.T) {
	tests := []struct {
		name    string
		value   interface{}
		want    []string
		wantErr bool
	}{
		{name: "missing", value: nil, want: nil},
		{name: "array", value: []interface{}{"09:00", " 09:30 ", ""}, want: []string{"09:00", "09:30"}},
		{name: "comma string", value: "09:00, 10:00,,", want: []string{"09:00", "10:00"}},
		{name: "typed slice", value: []string{"11:00"}, want: []string{"11:00"}},
		{name: "empty array", value: []interface{}{}, want: []string{}},
		{name: "mixed array", value: []interface{}{"09:00", 3}, wantErr: true},
		{name: "number", value: 3.0, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := map[string]interface{}{}
			if tt.value != nil {
				args["slots"] = tt.value
			}
			got, err := StringSliceArg(args, "slots")
			if (err != nil) != tt.wantErr {
				t.Fatalf("StringSliceArg error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("StringSliceArg = %#v, want %#v", got, tt.want)
			}
		})
	}
}
