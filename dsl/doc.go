// Package dsl parses and runs conversation scripts.
//
// # Script Language
//
// A script declares a module and a list of steps. Statements are one per
// line; # starts a comment.
//
//	module "ecommerce"
//
//	Step welcome
//	  Speak "Hello! What would you like to do?"
//	  Listen
//	  Case "buy" -> goto buyPhone
//	  Default -> goto fallback
//
//	Step buyPhone
//	  Lock "phone_stock"
//	  DBQuery "SELECT stock FROM goods WHERE name='phone'" -> goto checkStock stock
//
//	Step checkStock
//	  If stock <= 0 -> goto soldOut
//	  Speak "How many?"
//	  Listen assign quantity
//	  DBExec "UPDATE goods SET stock = stock - {quantity} WHERE name='phone'"
//	  Unlock "phone_stock"
//	  goto welcome
//
// Actions:
//
//   - Speak "text": say text; {name} placeholders are replaced by variables
//   - Listen: wait for the user, then branch on the step's Case/Default table
//   - Listen assign var: wait for the user and bind the answer to var
//   - Case "pattern" -> goto step / Default -> goto step: the branch table
//   - goto step: jump
//   - If a OP b -> goto step: jump when the comparison holds, else continue
//   - Lock "res" / Unlock "res": advisory, per-conversation resource flags
//   - DBQuery "sql" -> goto step var: bind the first column of the first row
//   - DBExec "sql": run a statement; failures are logged and ignored
//   - AIReply: answer the last user utterance with the reply generator
//   - Exit: end the conversation
//
// # Execution
//
// An Engine starts at the "welcome" step and runs actions in order until one
// transfers control. A Listen suspends the engine until the Channel returns a
// line, which the Resolver maps to the next step: exact Case match, then the
// classifier, then Default, then "fallback". Exit words jump to "goodbye".
// A failing action transfers to "fallback"; a missing step ends the run.
//
// Target names are resolved only when reached. Validate reports undefined
// targets and similar mistakes without changing how scripts run.
package dsl
