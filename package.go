// Package currents implements a conversational agent that reasons
// about tool use before answering: a reasoning-and-acting loop that
// alternates between querying a completion service, parsing its output
// for a requested tool action, executing that tool, and folding the
// result back into context, until a final answer is streamed to the
// caller token by token.
//
// # Quick Start
//
// Wire a completion client, register tools, and respond to a message:
//
//	package main
//
//	import (
//	    "context"
//	    "fmt"
//
//	    "github.com/currentslabs/currents"
//	    "github.com/currentslabs/currents/models"
//	    "github.com/currentslabs/currents/store"
//	    "github.com/currentslabs/currents/tools"
//	)
//
//	func main() {
//	    client, err := models.NewGroq("gsk_...", currents.DefaultModel)
//	    if err != nil {
//	        panic(err)
//	    }
//
//	    registry := currents.NewRegistry()
//	    registry.Register(tools.NewTavilySearch("tvly_..."))
//
//	    st := store.NewMemory()
//	    loop := currents.NewLoop(client, registry)
//	    builder := currents.NewContextBuilder(currents.DefaultSystemPrompt)
//	    agent := currents.NewAgent(loop, builder, st)
//
//	    conv, _ := st.CreateConversation(context.Background(), "user-1", "demo")
//	    stream := agent.Respond(context.Background(), conv.ID, "What's trending today?")
//	    for ev := range stream.Events() {
//	        switch e := ev.(type) {
//	        case currents.TokenEvent:
//	            fmt.Print(e.Token)
//	        case currents.ToolActivityEvent:
//	            fmt.Printf("\n[%s %s]\n", e.Tool, e.Phase)
//	        case currents.DoneEvent:
//	            fmt.Println()
//	        case currents.ErrorEvent:
//	            fmt.Println("error:", e.Message)
//	        }
//	    }
//	}
//
// # Loop Semantics
//
// One Respond call runs one loop execution. Each iteration asks the
// completion service for a full response and parses it for an
// ACTION/INPUT marker pair. A parsed action is dispatched through the
// Registry under a per-tool time budget; the outcome, success or
// failure, is folded back into the transcript as a tool result turn
// and the loop reasons again. When no action is requested, or the
// iteration or wall-clock budget runs out, the loop re-issues the
// completion in streaming mode and the answer flows to the consumer as
// TokenEvents. Tool failures are context, never fatal; only a failing
// completion service ends a run in an error event.
//
// # Events
//
// Every execution reports progress through an EventStream: zero or
// more ToolActivityEvent and TokenEvent values in emission order,
// terminated by exactly one DoneEvent or ErrorEvent. Producing an
// event never blocks the loop, and cancelling the stream stops the
// execution at its next suspension point.
package currents
