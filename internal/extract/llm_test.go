package extract

import (
	"context"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

type stubChatClient struct {
	reply   string
	err     error
	lastReq openai.ChatCompletionRequest
}

func (c *stubChatClient) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	c.lastReq = req
	if c.err != nil {
		return openai.ChatCompletionResponse{}, c.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: c.reply}},
		},
	}, nil
}

const recipePage = `<html><head><title>Lemon Pasta</title></head><body><main>
<h1>Lemon Pasta</h1>
<p>200 g spaghetti, 1 lemon, olive oil.</p>
<p>Boil the pasta. Toss with lemon and oil.</p>
</main></body></html>`

func TestFieldStrategy_ParsesModelJSON(t *testing.T) {
	client := &stubChatClient{reply: `{"title":"Lemon Pasta","ingredients":[{"name":"spaghetti","quantity":"200","unit":"g"}],"instructions":["Boil the pasta.","Toss with lemon."],"totalMinutes":20}`}
	s := &FieldStrategy{Client: client, Model: "test-model"}
	rec, err := s.TryExtract(context.Background(), "https://example.com/p", []byte(recipePage))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if rec == nil || rec.Title != "Lemon Pasta" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if rec.Method != "field-extraction" {
		t.Errorf("method = %q", rec.Method)
	}
	if rec.TotalMinutes != 20 {
		t.Errorf("totalMinutes = %d", rec.TotalMinutes)
	}
	if client.lastReq.Model != "test-model" {
		t.Errorf("model = %q", client.lastReq.Model)
	}
	if len(client.lastReq.Messages) != 2 {
		t.Fatalf("expected system+user messages, got %d", len(client.lastReq.Messages))
	}
}

func TestFieldStrategy_StripsCodeFences(t *testing.T) {
	client := &stubChatClient{reply: "```json\n{\"title\":\"Fenced\",\"ingredients\":[{\"name\":\"rice\"}],\"instructions\":[\"Cook.\"]}\n```"}
	s := &FieldStrategy{Client: client, Model: "m"}
	rec, err := s.TryExtract(context.Background(), "https://example.com/p", []byte(recipePage))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if rec == nil || rec.Title != "Fenced" {
		t.Fatalf("fence stripping failed: %+v", rec)
	}
}

func TestFieldStrategy_EmptyTitleMeansNotARecipe(t *testing.T) {
	client := &stubChatClient{reply: `{"title":"","ingredients":[],"instructions":[]}`}
	s := &FieldStrategy{Client: client, Model: "m"}
	rec, err := s.TryExtract(context.Background(), "https://example.com/p", []byte(recipePage))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if rec != nil {
		t.Fatalf("expected nil record for non-recipe page, got %+v", rec)
	}
}

func TestFieldStrategy_TruncatesExcerpt(t *testing.T) {
	long := "<html><body><main><p>"
	for i := 0; i < 2000; i++ {
		long += "pasta water salt "
	}
	long += "</p></main></body></html>"
	client := &stubChatClient{reply: `{"title":"X","ingredients":[{"name":"a"}],"instructions":["b"]}`}
	s := &FieldStrategy{Client: client, Model: "m", MaxExcerptChars: 500}
	if _, err := s.TryExtract(context.Background(), "https://example.com/p", []byte(long)); err != nil {
		t.Fatalf("extract: %v", err)
	}
	if got := len(client.lastReq.Messages[1].Content); got > 700 {
		t.Fatalf("excerpt not truncated: %d chars", got)
	}
}

func TestFieldStrategy_BlankPageDeclines(t *testing.T) {
	client := &stubChatClient{reply: "{}"}
	s := &FieldStrategy{Client: client, Model: "m"}
	rec, err := s.TryExtract(context.Background(), "https://example.com/p", []byte("<html><body></body></html>"))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if rec != nil {
		t.Fatal("expected nil for blank page")
	}
	if len(client.lastReq.Messages) != 0 {
		t.Fatal("model should not be called for blank pages")
	}
}
