package cli

import "github.com/m-mizutani/fireconf"

var GenerateBaseURL = generateBaseURL

func DefineFirestoreIndexes() *fireconf.Config {
	return defineFirestoreIndexes()
}
