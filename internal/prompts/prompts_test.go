package prompts

import (
	"strings"
	"testing"
)

func TestGreeting_MentionsUserAndAIName(t *testing.T) {
	got := Greeting("alice", "hiro")
	for _, want := range []string{"My name is alice", "Your name is hiro", "introduce yourself"} {
		if !strings.Contains(got, want) {
			t.Fatalf("Greeting() = %q, want it to contain %q", got, want)
		}
	}
}

func TestGoodbyeLiteral(t *testing.T) {
	if Goodbye != "Goodbye" {
		t.Fatalf("Goodbye = %q", Goodbye)
	}
}
