package mockbackend

// cannedReplies maps agent ids to a reply template; %s is the user text.
var cannedReplies = map[int]string{
	1: "**[MOCK agent 1]** Overview captured for _%s_.\n\n" +
		"1. Home page with a product catalogue\n" +
		"2. Cart with checkout\n" +
		"3. Personal account\n\n" +
		"What problem does the project solve for its users?",
	2: "**[MOCK agent 2]** Goals analysed: _%s_.\n\n" +
		"Key points: UX, payment security, responsive design.\n\n" +
		"Who will use the system?",
	3: "**[MOCK agent 3]** User groups for _%s_:\n\n" +
		"| group | needs |\n|---|---|\n| customer | browse, buy |\n| manager | catalogue, orders |\n| admin | users, settings |\n\n" +
		"Which features matter most to each group?",
	4: "**[MOCK agent 4]** Requirements for _%s_:\n\n" +
		"- Product search with filters\n" +
		"- Order tracking\n" +
		"- Personalised recommendations\n\n" +
		"Move on to the diagram stage when the list looks complete.",
}
