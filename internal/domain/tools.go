package domain

// ChooseTool resolves the tool assigned to a new product. A requested tool is
// accepted only when it appears in the category's tool list; otherwise the
// first tool is assigned. Returns false when the category defines no tools.
func ChooseTool(tools []string, requested string) (string, bool) {
	if len(tools) == 0 {
		return "", false
	}
	for _, tool := range tools {
		if tool == requested {
			return requested, true
		}
	}
	return tools[0], true
}
