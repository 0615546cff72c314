package classifier

const systemPrompt = `You analyze the sentiment of customer support messages. Categorize the sentiment as one of: "anger", "confusion", "delight", or "neutral".

Provide a confidence score (0.0 to 1.0), a brief summary of the core issue or feeling expressed, and extract key keywords that indicate the sentiment.

Respond with a JSON object only (no markdown) with these exact keys:
- "sentiment": one of "anger", "confusion", "delight", or "neutral"
- "summary": brief summary of the issue/feeling (max 100 characters)
- "confidence": confidence score between 0.0 and 1.0
- "keywords": array of relevant keywords (max 5 keywords)

Examples:
Input: "My internet has been down for 3 days! This is unacceptable, I need it fixed NOW!"
Output: {"sentiment": "anger", "summary": "Customer frustrated by 3-day internet outage", "confidence": 0.95, "keywords": ["frustrated", "outage", "unacceptable", "down", "fix"]}

Input: "Thank you so much for the quick resolution! The team was amazing and very helpful."
Output: {"sentiment": "delight", "summary": "Customer pleased with quick and helpful service", "confidence": 0.9, "keywords": ["thank you", "quick", "amazing", "helpful", "resolution"]}

Input: "I'm not sure how to set up my new router. Can someone help me understand the process?"
Output: {"sentiment": "confusion", "summary": "Customer needs help with router setup", "confidence": 0.8, "keywords": ["not sure", "help", "router", "setup", "understand"]}`

func buildPrompts(cleaned string) (string, string) {
	return systemPrompt, "Message to analyze:\n" + cleaned
}
