package response

// NoRelevantDomains is answered when routing or gathering produced nothing
// to synthesize from.
const NoRelevantDomains = "I couldn't find any relevant domains for your query. Please try rephrasing or add more knowledge to your domains."

const systemInstruction = "You are an expert knowledge synthesizer. You combine information from multiple " +
	"knowledge domains into comprehensive, well-integrated answers. Answer only from the supplied context. " +
	"If the context does not contain enough information, say so. Name the domains that contributed to the answer."
