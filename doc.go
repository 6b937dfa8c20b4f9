// Package chat runs scripted conversations.
//
// A conversation is described in a small line-oriented language: named steps
// holding ordered actions that speak, listen, branch on what the user said,
// query a store or ask a language model for a free-form reply.
//
//	module "ecommerce"
//
//	Step welcome
//	  Speak "Hi! Ask about stock or an order."
//	  Listen
//	  Case "stock" -> goto checkStock
//	  Default -> goto fallback
//
// The dsl package parses scripts and runs them. This package holds the
// pieces shared by every layer: the collaborator interfaces the engine calls
// out to (Channel, Classifier, Replier, Store), transcript utterances,
// engine events, the error taxonomy and configuration.
//
// # Collaborators
//
// The engine never talks to the outside world directly:
//
//   - Channel reads user lines and displays bot text
//   - Classifier maps free text onto a step's Case labels
//   - Replier generates AIReply answers
//   - Store runs DBQuery and DBExec statements
//
// The llm package provides Classifier and Replier implementations, the
// store package provides SQLite and PostgreSQL stores, and the serve package
// runs many conversations at once behind an HTTP API.
package chat
