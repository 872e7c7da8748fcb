/*
Package registry holds the item key layouts of document collections stored in
a single DynamoDB table.

Every collection shares one table. A layout maps item attributes to templates
whose macros are filled from the document being written:

	registry.RegisterKeyLayout("dbs/appdb/colls/members", registry.KeyLayout{
	    "PK":     "{collectionLink}",
	    "SK":     "MEMBER#{id}",
	    "GSI1PK": "EMAIL#{Email}",
	    "GSI1SK": "MEMBER",
	})

Collections without a registered layout use DefaultKeyLayout, which keys
items by collection link and document id. Layouts should be registered during
initialization, before the table is written.
*/
package registry
