// Package llm provides the language model collaborators for gochat.
//
// # Backends
//
// Two backends implement the LLM interface:
//
//	a := llm.NewAnthropic()  // Uses ANTHROPIC_API_KEY env var
//	a := llm.NewAnthropic(llm.WithAPIKey("sk-..."), llm.WithMaxRetries(2))
//
//	o := llm.NewOpenAI(llm.OpenAIConfig{
//	    BaseURL: "https://open.bigmodel.cn/api/paas/v4/",
//	    Model:   "glm-4",
//	})
//
// Neither backend retries by default. A failed call surfaces as an error and
// the engine falls back to its apology text.
//
// # Collaborators
//
// IntentClassifier implements chat.Classifier and ReplyGenerator implements
// chat.Replier:
//
//	engine := dsl.NewEngine(script, io,
//	    dsl.WithClassifier(llm.NewIntentClassifier(o)),
//	    dsl.WithReplier(llm.NewReplyGenerator(o, nil)),
//	)
package llm
