package service

import (
	"errors"
	"testing"

	"support-widget/internal/domain"
)

func TestSelectOption_TransitionTable(t *testing.T) {
	base := domain.ConversationState{SessionID: "s1", Locale: "en"}
	human := domain.StepPtr(domain.StepHumanSupport)

	cases := []struct {
		name         string
		state        domain.ConversationState
		step         domain.Step
		opt          domain.Option
		wantStep     domain.Step
		wantCategory string
		wantQuestion string
		wantConfirm  bool
	}{
		{name: "disclaimer default", state: base, step: domain.StepStartingDisclaimer,
			opt: domain.Option{ID: "start"}, wantStep: domain.StepUserTypes},
		{name: "user type", state: base, step: domain.StepUserTypes,
			opt: domain.Option{ID: "student", OptionValue: "Student"}, wantStep: domain.StepConcernCategories},
		{name: "category", state: base, step: domain.StepConcernCategories,
			opt: domain.Option{ID: "billing", OptionValue: "Billing"}, wantStep: domain.StepTopQuestions, wantCategory: "billing"},
		{name: "category sentinel", state: base, step: domain.StepConcernCategories,
			opt: domain.Option{ID: domain.CategorySomethingElse}, wantStep: domain.StepTopQuestions, wantCategory: domain.CategorySomethingElse},
		{name: "top question something else", state: withCategory(base, "billing"), step: domain.StepTopQuestions,
			opt: domain.Option{ID: domain.CategorySomethingElse, OptionValue: "Something else"}, wantStep: domain.StepTopQuestions, wantCategory: domain.CategorySomethingElse},
		{name: "top question default", state: withCategory(base, "billing"), step: domain.StepTopQuestions,
			opt: domain.Option{ID: "q1", OptionValue: "How do I pay?"}, wantStep: domain.StepQueryAnswer, wantCategory: "billing", wantQuestion: "How do I pay?"},
		{name: "top question override", state: withCategory(base, "billing"), step: domain.StepTopQuestions,
			opt: domain.Option{ID: "q2", OptionValue: "Talk to someone", NextStep: human}, wantStep: domain.StepHumanSupport, wantCategory: "billing", wantQuestion: "Talk to someone"},
		{name: "qa follow-up stays", state: withCategory(base, "billing"), step: domain.StepQueryAnswer,
			opt: domain.Option{ID: "f1", OptionValue: "And refunds?"}, wantStep: domain.StepQueryAnswer, wantCategory: "billing", wantQuestion: "And refunds?"},
		{name: "qa human", state: base, step: domain.StepQueryAnswer,
			opt: domain.Option{ID: domain.OptionHumanSupport}, wantStep: domain.StepHumanSupport},
		{name: "qa end chat", state: base, step: domain.StepQueryAnswer,
			opt: domain.Option{ID: domain.OptionEndChat}, wantStep: domain.StepRating},
		{name: "qa ask another confirms", state: base, step: domain.StepQueryAnswer,
			opt: domain.Option{ID: domain.OptionAskAnother}, wantConfirm: true},
		{name: "override to categories confirms", state: base, step: domain.StepHumanSupport,
			opt: domain.Option{ID: "restart", NextStep: domain.StepPtr(domain.StepConcernCategories)}, wantConfirm: true},
		{name: "human support end chat", state: base, step: domain.StepHumanSupport,
			opt: domain.Option{ID: domain.OptionEndChat}, wantStep: domain.StepRating},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			next, confirm, err := selectOption(tc.state, tc.step, tc.opt)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if confirm != tc.wantConfirm {
				t.Fatalf("confirm: got %v want %v", confirm, tc.wantConfirm)
			}
			if tc.wantConfirm {
				if next != tc.state {
					t.Fatalf("confirmation must not change state, got %+v", next)
				}
				return
			}
			if next.CurrentStep != tc.wantStep {
				t.Fatalf("step: got %q want %q", next.CurrentStep, tc.wantStep)
			}
			if next.ConcernCategory != tc.wantCategory {
				t.Fatalf("category: got %q want %q", next.ConcernCategory, tc.wantCategory)
			}
			if next.Question != tc.wantQuestion {
				t.Fatalf("question: got %q want %q", next.Question, tc.wantQuestion)
			}
			if next.SessionID != "s1" {
				t.Fatalf("session id must be preserved")
			}
		})
	}
}

func TestSelectOption_UnavailableSteps(t *testing.T) {
	for _, step := range []domain.Step{domain.StepRating, domain.StepAIDisclaimer, ""} {
		if _, _, err := selectOption(domain.ConversationState{}, step, domain.Option{ID: "x"}); !errors.Is(err, ErrActionUnavailable) {
			t.Fatalf("%q: expected ErrActionUnavailable, got %v", step, err)
		}
	}
}

func TestConfirmOption_OnlyTwoSuccessors(t *testing.T) {
	st := domain.ConversationState{
		CurrentStep:            domain.StepQueryAnswer,
		ConcernCategory:        "billing",
		Question:               "How?",
		AskAnotherConfirmation: true,
	}

	yes, err := confirmOption(st, domain.Option{ID: domain.OptionConfirmYes})
	if err != nil || yes.CurrentStep != domain.StepConcernCategories || yes.ConcernCategory != "" || yes.Question != "" || yes.AskAnotherConfirmation {
		t.Fatalf("unexpected yes result: %+v err=%v", yes, err)
	}

	no, err := confirmOption(st, domain.Option{ID: domain.OptionConfirmNo})
	if err != nil || no.CurrentStep != domain.StepRating || no.ConcernCategory != "billing" || no.AskAnotherConfirmation {
		t.Fatalf("unexpected no result: %+v err=%v", no, err)
	}

	for _, id := range []string{domain.OptionAskAnother, domain.OptionEndChat, "maybe", ""} {
		out, err := confirmOption(st, domain.Option{ID: id})
		if !errors.Is(err, ErrInvalidConfirmation) {
			t.Fatalf("%q: expected ErrInvalidConfirmation, got %v", id, err)
		}
		if out != st {
			t.Fatalf("%q: state must be unchanged on rejection", id)
		}
	}
}

func TestSubmitText(t *testing.T) {
	st := domain.ConversationState{CurrentStep: domain.StepTopQuestions, ConcernCategory: domain.CategorySomethingElse}
	next, err := submitText(st, "  my printer is on fire ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next.CurrentStep != domain.StepQueryAnswer || next.Question != "my printer is on fire" {
		t.Fatalf("unexpected state: %+v", next)
	}
	if _, err := submitText(st, "   "); !errors.Is(err, ErrEmptyText) {
		t.Fatalf("expected ErrEmptyText, got %v", err)
	}
}

func TestFooterFor(t *testing.T) {
	yes, no := true, false
	cases := []struct {
		name  string
		state domain.ConversationState
		resp  domain.Response
		want  domain.FooterKind
	}{
		{"starting disclaimer", domain.ConversationState{CurrentStep: domain.StepStartingDisclaimer}, domain.Response{}, domain.FooterStartChat},
		{"rating", domain.ConversationState{CurrentStep: domain.StepRating}, domain.Response{}, domain.FooterNone},
		{"terminal", domain.ConversationState{CurrentStep: domain.StepAIDisclaimer}, domain.Response{}, domain.FooterStartOver},
		{"qa forces text", domain.ConversationState{CurrentStep: domain.StepQueryAnswer}, domain.Response{TextInputEnabled: &no}, domain.FooterTextInput},
		{"answer forces text", domain.ConversationState{CurrentStep: domain.StepHumanSupport}, domain.Response{Answer: "hi"}, domain.FooterTextInput},
		{"explicit true", domain.ConversationState{CurrentStep: domain.StepTopQuestions}, domain.Response{TextInputEnabled: &yes}, domain.FooterTextInput},
		{"explicit false beats sentinel", domain.ConversationState{CurrentStep: domain.StepTopQuestions, ConcernCategory: domain.CategorySomethingElse}, domain.Response{TextInputEnabled: &no}, domain.FooterSelectOption},
		{"sentinel fallback", domain.ConversationState{CurrentStep: domain.StepTopQuestions, ConcernCategory: domain.CategorySomethingElse}, domain.Response{}, domain.FooterTextInput},
		{"default select", domain.ConversationState{CurrentStep: domain.StepUserTypes}, domain.Response{}, domain.FooterSelectOption},
		{"pending confirmation", domain.ConversationState{CurrentStep: domain.StepQueryAnswer, AskAnotherConfirmation: true}, domain.Response{}, domain.FooterSelectOption},
	}
	for _, tc := range cases {
		if got := footerFor(tc.state, tc.resp).Kind; got != tc.want {
			t.Fatalf("%s: got %q want %q", tc.name, got, tc.want)
		}
	}
}

func withCategory(st domain.ConversationState, category string) domain.ConversationState {
	st.ConcernCategory = category
	return st
}
