package currents

// =============================================================================
// Groq Models
// https://console.groq.com/docs/models
// =============================================================================

const (
	// Llama 3.x Series
	ModelGroqLlama33_70BVersatile = "llama-3.3-70b-versatile"
	ModelGroqLlama31_8BInstant    = "llama-3.1-8b-instant"
	ModelGroqLlama3_70B           = "llama3-70b-8192"
	ModelGroqLlama3_8B            = "llama3-8b-8192"

	// Llama 4 Series
	ModelGroqLlama4Maverick = "meta-llama/llama-4-maverick-17b-128e-instruct"
	ModelGroqLlama4Scout    = "meta-llama/llama-4-scout-17b-16e-instruct"

	// Mixtral / Gemma
	ModelGroqMixtral8x7B = "mixtral-8x7b-32768"
	ModelGroqGemma2_9B   = "gemma2-9b-it"

	// Reasoning Models
	ModelGroqDeepSeekR1DistillLlama70B = "deepseek-r1-distill-llama-70b"
	ModelGroqQwenQwQ32B                = "qwen-qwq-32b"
)

// DefaultModel is the model used when none is configured.
const DefaultModel = ModelGroqLlama33_70BVersatile

// DefaultSystemPrompt instructs the model on the two standard tools and
// the ACTION/INPUT marker convention the parser understands. Deployments
// with different tools supply their own instruction through the
// context builder.
const DefaultSystemPrompt = `You are a helpful AI assistant with access to tools.

You have access to the following tools:
1. Tavily_Search: Search the web for current information, news, and recent events
2. Google_Trends_MCP: Get trending topics and popular searches

When you need to use a tool, respond with:
ACTION: <tool_name>
INPUT: <tool_input>

Then I will provide the tool result, and you can continue.

If you don't need tools, just provide your answer directly.

Tool names must be exactly: Tavily_Search or Google_Trends_MCP`
