package sentiment

// Tablas lexicas congeladas del scorer. Son de solo lectura despues de la
// inicializacion del paquete y seguras para compartir entre goroutines.
// Las listas estan fijadas en 47 positivas y 49 negativas; los tests las
// pinean para que no deriven.

var positiveWords = wordSet(
	"happy", "good", "great", "excellent", "wonderful", "amazing", "love",
	"joy", "excited", "thrilled", "delighted", "pleased", "satisfied",
	"optimistic", "hopeful", "grateful", "blessed", "fantastic", "awesome",
	"nice", "perfect", "best", "better", "beautiful", "lovely", "fun",
	"enjoy", "glad", "proud", "yay", "cool", "sweet", "brilliant", "super",
	"thanks", "thank", "appreciate", "congrats", "congratulations",
	"celebrate", "smile", "laugh", "laughing", "funny", "hilarious",
	"adorable", "cute",
)

var negativeWords = wordSet(
	"sad", "bad", "terrible", "awful", "hate", "angry", "mad", "furious",
	"depressed", "worried", "anxious", "stressed", "upset", "frustrated",
	"disappointed", "hurt", "pain", "suffer", "horrible", "disgusting",
	"sick", "tired", "exhausted", "annoyed", "irritated", "worst", "worse",
	"sucks", "damn", "hell", "cry", "crying", "miss", "lonely", "alone",
	"difficult", "hard", "tough", "struggle", "problem", "issue", "wrong",
	"fail", "failed", "failure", "broke", "broken", "sorry", "apologize",
)

// Tokens de relleno: mensajes que son solo esto se consideran neutrales de
// entrada (salvo que traigan emojis).
var fillerTokens = wordSet(
	"ok", "okay", "k", "kk", "yeah", "yep", "nope", "hmm", "hm", "um", "uh",
	"ah", "oh", "lol", "lmao", "haha", "hehe", "idk", "brb",
)

// Patrones multi-palabra; cada aparicion suma ±2 al contador correspondiente.
var positivePatterns = []string{
	"can't wait", "cant wait", "feel good", "feeling good", "sounds good",
	"look forward", "looking forward", "so happy", "really good", "went well",
}

var negativePatterns = []string{
	"feel bad", "feeling bad", "not good", "don't like", "dont like",
	"hate it", "so sad", "really bad", "went wrong", "fed up", "had enough",
}

func wordSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// PositiveWordCount y NegativeWordCount exponen los tamaños congelados para
// que los tests los pineen.
func PositiveWordCount() int { return len(positiveWords) }
func NegativeWordCount() int { return len(negativeWords) }
