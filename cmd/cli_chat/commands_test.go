package main

import "testing"

func TestParseCommand(t *testing.T) {
	cases := []struct {
		line string
		kind commandKind
	}{
		{"hola", cmdText},
		{"2", cmdPick},
		{"0", cmdText},
		{"/start", cmdStart},
		{"/RESET", cmdReset},
		{"/state", cmdState},
		{"/help", cmdHelp},
		{"/quit", cmdExit},
	}
	for _, tc := range cases {
		cmd, err := parseCommand(tc.line, nil)
		if err != nil {
			t.Fatalf("parseCommand(%q): %v", tc.line, err)
		}
		if cmd.kind != tc.kind {
			t.Fatalf("parseCommand(%q) kind = %d, want %d", tc.line, cmd.kind, tc.kind)
		}
	}

	if _, err := parseCommand("/fly", nil); err == nil {
		t.Fatalf("expected error for unknown command")
	}
}

func TestParseRate(t *testing.T) {
	isFeedback := func(id string) bool { return id == "too_slow" }

	cmd, err := parseCommand("/rate 3 too_slow tardo mucho", isFeedback)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cmd.rating.Rating != 3 || cmd.rating.FeedbackOption != "too_slow" || cmd.rating.FeedbackText != "tardo mucho" {
		t.Fatalf("unexpected rating %+v", cmd.rating)
	}

	cmd, err = parseCommand("/rate 5 muy bien", isFeedback)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cmd.rating.FeedbackOption != "" || cmd.rating.FeedbackText != "muy bien" {
		t.Fatalf("unexpected rating %+v", cmd.rating)
	}

	if _, err := parseCommand("/rate", nil); err != errUsage {
		t.Fatalf("expected usage error, got %v", err)
	}
	if _, err := parseCommand("/rate cinco", nil); err != errUsage {
		t.Fatalf("expected usage error, got %v", err)
	}
}
