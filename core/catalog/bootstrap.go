package catalog

import "github.com/FocuswithJustin/mdf/core/sqltype"

// The system base tables must be decoded before any schema can be read from
// the file, so their layouts are fixed here. They match every file version
// this reader supports.

func col(name string, ordinal int, kind sqltype.Kind, length int) sqltype.Column {
	return sqltype.Column{
		Name:     name,
		Ordinal:  ordinal,
		Type:     sqltype.Type{Kind: kind, Length: length},
		Nullable: true,
	}
}

var sysAllocUnitsSchema = sqltype.NewSchema([]sqltype.Column{
	col("auid", 1, sqltype.KindBigInt, 0),
	col("type", 2, sqltype.KindTinyInt, 0),
	col("ownerid", 3, sqltype.KindBigInt, 0),
	col("status", 4, sqltype.KindInt, 0),
	col("fgid", 5, sqltype.KindSmallInt, 0),
	col("pgfirst", 6, sqltype.KindBinary, 6),
	col("pgroot", 7, sqltype.KindBinary, 6),
	col("pgfirstiam", 8, sqltype.KindBinary, 6),
	col("pcused", 9, sqltype.KindBigInt, 0),
	col("pcdata", 10, sqltype.KindBigInt, 0),
	col("pcreserved", 11, sqltype.KindBigInt, 0),
	col("dbfragid", 12, sqltype.KindInt, 0),
})

var sysRowSetsSchema = sqltype.NewSchema([]sqltype.Column{
	col("rowsetid", 1, sqltype.KindBigInt, 0),
	col("ownertype", 2, sqltype.KindTinyInt, 0),
	col("idmajor", 3, sqltype.KindInt, 0),
	col("idminor", 4, sqltype.KindInt, 0),
	col("numpart", 5, sqltype.KindInt, 0),
	col("status", 6, sqltype.KindInt, 0),
	col("fgidfs", 7, sqltype.KindSmallInt, 0),
	col("rcrows", 8, sqltype.KindBigInt, 0),
	col("cmprlevel", 9, sqltype.KindTinyInt, 0),
	col("fillfact", 10, sqltype.KindTinyInt, 0),
	col("maxnullbit", 11, sqltype.KindInt, 0),
	col("maxleaf", 12, sqltype.KindInt, 0),
	col("maxint", 13, sqltype.KindSmallInt, 0),
	col("minleaf", 14, sqltype.KindSmallInt, 0),
	col("minint", 15, sqltype.KindSmallInt, 0),
	col("rsguid", 16, sqltype.KindVarBinary, 16),
	col("lockres", 17, sqltype.KindVarBinary, 8),
	col("dbfragid", 18, sqltype.KindInt, 0),
})

var sysSchObjsSchema = sqltype.NewSchema([]sqltype.Column{
	col("id", 1, sqltype.KindInt, 0),
	col("name", 2, sqltype.KindSysName, 256),
	col("nsid", 3, sqltype.KindInt, 0),
	col("nsclass", 4, sqltype.KindTinyInt, 0),
	col("status", 5, sqltype.KindInt, 0),
	col("type", 6, sqltype.KindChar, 2),
	col("pid", 7, sqltype.KindInt, 0),
	col("pclass", 8, sqltype.KindTinyInt, 0),
	col("intprop", 9, sqltype.KindInt, 0),
	col("created", 10, sqltype.KindDateTime, 0),
	col("modified", 11, sqltype.KindDateTime, 0),
})

var sysColParsSchema = sqltype.NewSchema([]sqltype.Column{
	col("id", 1, sqltype.KindInt, 0),
	col("number", 2, sqltype.KindSmallInt, 0),
	col("colid", 3, sqltype.KindInt, 0),
	col("name", 4, sqltype.KindSysName, 256),
	col("xtype", 5, sqltype.KindTinyInt, 0),
	col("utype", 6, sqltype.KindInt, 0),
	col("length", 7, sqltype.KindSmallInt, 0),
	col("prec", 8, sqltype.KindTinyInt, 0),
	col("scale", 9, sqltype.KindTinyInt, 0),
	col("collationid", 10, sqltype.KindInt, 0),
	col("status", 11, sqltype.KindInt, 0),
	col("maxinrow", 12, sqltype.KindSmallInt, 0),
	col("xmlns", 13, sqltype.KindInt, 0),
	col("dflt", 14, sqltype.KindInt, 0),
	col("chk", 15, sqltype.KindInt, 0),
	col("idtval", 16, sqltype.KindVarBinary, 64),
})

var sysScalarTypesSchema = sqltype.NewSchema([]sqltype.Column{
	col("id", 1, sqltype.KindInt, 0),
	col("schid", 2, sqltype.KindInt, 0),
	col("name", 3, sqltype.KindSysName, 256),
	col("xtype", 4, sqltype.KindTinyInt, 0),
	col("length", 5, sqltype.KindSmallInt, 0),
	col("prec", 6, sqltype.KindTinyInt, 0),
	col("scale", 7, sqltype.KindTinyInt, 0),
	col("collationid", 8, sqltype.KindInt, 0),
	col("status", 9, sqltype.KindInt, 0),
	col("created", 10, sqltype.KindDateTime, 0),
	col("modified", 11, sqltype.KindDateTime, 0),
	col("dflt", 12, sqltype.KindInt, 0),
	col("chk", 13, sqltype.KindInt, 0),
})

var sysSingleObjRefsSchema = sqltype.NewSchema([]sqltype.Column{
	col("class", 1, sqltype.KindTinyInt, 0),
	col("depid", 2, sqltype.KindInt, 0),
	col("depsubid", 3, sqltype.KindInt, 0),
	col("indepid", 4, sqltype.KindInt, 0),
	col("indepsubid", 5, sqltype.KindInt, 0),
	col("status", 6, sqltype.KindInt, 0),
})
