package ai

// FactExtractPrompt asks the model for structured financial fact tuples from
// a sample of document text. The two %s verbs take the document text and
// nothing else; output is a JSON array decoded with UnmarshalFlexible.
const FactExtractPrompt = `
# Task Context
You are an assistant that extracts factual financial relationships from document text.

# Detailed Task Description & Rules
Focus on:
1. Companies and their financial metrics
2. Market trends and correlations
3. Financial instruments and their characteristics
4. Risk factors and their implications

For each fact, provide:
- The entities involved (e.g., company names, metrics, instruments)
- The relationship between them (e.g., owns, increased by, correlates with)
- The value or description of the relationship

# Background Data
Text to analyze:
%s

# Output Formatting
Return a JSON array like:
[
    {"entity1": "Apple", "relationship": "reported", "entity2": "revenue", "value": "$365.8 billion"},
    {"entity1": "interest rates", "relationship": "impacts", "entity2": "bond prices", "value": "inversely"}
]
Output must be valid JSON only (no commentary, no extra text).
`

// SearchTermsPrompt derives graph search terms from a user query. The single
// %s verb takes the query. The model must answer with a bare comma-separated
// list; an empty or unusable answer degrades the graph branch of retrieval.
const SearchTermsPrompt = `
# Task Context
You are an assistant that identifies the key financial entities, concepts, or metrics in a user query.

# Background Data
Query: "%s"

# Detailed Task Description & Rules
- Return only a comma-separated list of the key terms, with no explanation.
- Prefer concrete entities (company names, instruments, metrics) over filler words.

# Output Formatting
Key terms:
`

// AdvisorPrompt is the grounded response prompt. Verbs, in order: risk
// tolerance, financial goals, investment horizon, preferences JSON, vector
// context block, graph facts block, user query.
const AdvisorPrompt = `
# Task Context
You are a personalized financial advisor. Use the provided context and the user's profile to provide tailored financial advice. Be factual, accurate and base your response on the provided information.

# Background Data
USER PROFILE:
- Risk tolerance: %s
- Financial goals: %s
- Investment horizon: %s
- Key preferences: %s

RETRIEVED DOCUMENT CONTEXT:
%s

KNOWLEDGE GRAPH FACTS:
%s

USER QUERY:
%s

# Detailed Task Description & Rules
- Based strictly on the information above, provide a personalized financial advisory response.
- Focus on being factual and specific to this user's profile and the retrieved information.
- If you cannot provide specific advice based on the context, clearly state so and provide general advice based on the user's profile.
`

// PreferencePrompt asks the model to infer profile deltas from a query alone.
// The single %s verb takes the query. Preference scores are in [-1,1] with -1
// meaning "no signal"; empty strings and empty arrays mean no update.
const PreferencePrompt = `
# Task Context
You are an assistant that analyzes a user query to extract financial preferences, interests, and risk tolerance.

# Background Data
Query: "%s"

# Detailed Task Description & Rules
- Provide updates to the user profile in JSON format.
- If no clear preferences are found, return empty values.
- Preference scores range from -1.0 to 1.0; use -1.0 when the query carries no signal for that category.

# Output Formatting
{
    "risk_tolerance": "",
    "financial_goals": [],
    "preferences": {
        "sustainability": -1.0,
        "technology": -1.0,
        "healthcare": -1.0
    }
}
Output must be valid JSON only (no commentary, no extra text).
`
